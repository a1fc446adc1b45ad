package property

import (
	"context"
	"errors"
	"math/rand/v2"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	userdomain "water-app-go/internal/domain/user"
	"water-app-go/internal/domain/waterid"
	"water-app-go/internal/platform/metrics"
	"water-app-go/internal/store"
	"water-app-go/pkg/apperr"
	"water-app-go/pkg/events"
	"water-app-go/pkg/logger"
)

const rootIDAttempts = 10

var tracer = otel.Tracer("water-app-go/internal/domain/property")

// Service keeps User, Property and Family records consistent across property
// and tenant lifecycle changes. There is no transaction around a cascade: a
// failing step leaves the earlier steps committed and is reported by name.
type Service struct {
	users      userdomain.Repository
	properties Repository
	families   FamilyRepository
	locker     Locker
	publisher  events.Publisher
	metrics    *metrics.Metrics
	log        logger.Logger
	pick       func(n int) int
	newRootID  func() (string, error)
}

type Option func(*Service)

func WithPublisher(publisher events.Publisher) Option {
	return func(s *Service) { s.publisher = publisher }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithLogger(log logger.Logger) Option {
	return func(s *Service) { s.log = log }
}

// WithPicker replaces the uniform random choice used when relocating a
// resident to another owned property.
func WithPicker(pick func(n int) int) Option {
	return func(s *Service) { s.pick = pick }
}

func WithRootIDGenerator(generate func() (string, error)) Option {
	return func(s *Service) { s.newRootID = generate }
}

func NewService(users userdomain.Repository, properties Repository, families FamilyRepository, locker Locker, opts ...Option) *Service {
	s := &Service{
		users:      users,
		properties: properties,
		families:   families,
		locker:     locker,
		publisher:  events.Noop(),
		log:        logger.Discard(),
		pick:       rand.IntN,
		newRootID:  waterid.GenerateRootID,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type CreateInput struct {
	Name             string
	District         string
	Municipality     string
	Ward             int
	Type             Type
	IdentifierNumber string
	ExactLocation    string
}

func (in CreateInput) normalize() (CreateInput, IDType, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.District = strings.TrimSpace(in.District)
	in.Municipality = strings.TrimSpace(in.Municipality)
	in.IdentifierNumber = strings.TrimSpace(in.IdentifierNumber)
	in.ExactLocation = strings.TrimSpace(in.ExactLocation)
	in.Type = Type(strings.ToLower(strings.TrimSpace(string(in.Type))))

	switch {
	case in.Name == "":
		return in, "", apperr.Validation("name is required")
	case in.District == "":
		return in, "", apperr.Validation("district is required")
	case in.Municipality == "":
		return in, "", apperr.Validation("municipality is required")
	case in.Ward < 1:
		return in, "", apperr.Validation("ward number must be at least 1")
	}

	idType, ok := in.Type.IDType()
	if !ok {
		return in, "", apperr.Validationf("property type must be %q or %q", TypePersonal, TypeApartment)
	}
	if in.IdentifierNumber == "" {
		if idType == IDTypeHoldingNumber {
			return in, "", apperr.Validation("holding number is required for a personal property")
		}
		return in, "", apperr.Validation("flat id is required for an apartment")
	}
	return in, idType, nil
}

func (s *Service) CreateProperty(ctx context.Context, ownerID string, input CreateInput) (_ *Property, err error) {
	ctx, span := tracer.Start(ctx, "property.CreateProperty", trace.WithAttributes(attribute.String("owner_id", ownerID)))
	defer func() { endSpan(span, err) }()

	input, idType, err := input.normalize()
	if err != nil {
		return nil, err
	}
	owner, err := s.loadUser(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	exists, err := s.properties.IdentifierExists(ctx, idType, input.IdentifierNumber)
	if err != nil {
		return nil, apperr.Storage("check property identifier", err)
	}
	if exists {
		return nil, ErrDuplicateIdentifier
	}

	rootID, err := s.uniqueRootID(ctx)
	if err != nil {
		return nil, err
	}
	ownerWaterID := waterid.Compose(rootID, waterid.OwnerTenantCode)

	property := Property{
		ID:               uuid.NewString(),
		RootID:           rootID,
		Name:             input.Name,
		District:         input.District,
		Municipality:     input.Municipality,
		Ward:             input.Ward,
		Type:             input.Type,
		IDType:           idType,
		IdentifierNumber: input.IdentifierNumber,
		NumberOfTenants:  1,
		Families:         []string{ownerWaterID},
		ExactLocation:    input.ExactLocation,
	}
	if err := s.properties.Create(ctx, &property); err != nil {
		if errors.Is(err, store.ErrConflict) {
			return nil, ErrDuplicateIdentifier
		}
		return nil, apperr.Storage("create property", err)
	}

	ownerFamily := Family{ID: uuid.NewString(), RootID: rootID, TenantCode: waterid.OwnerTenantCode}
	if err := s.families.Create(ctx, &ownerFamily); err != nil {
		return nil, apperr.Storage("create owner family", err)
	}

	// A first property becomes the owner's residence; later ones do not move it.
	waterID, tenantCode := owner.WaterID, owner.TenantCode
	if tenantCode == "" {
		tenantCode = waterid.OwnerTenantCode
	}
	if waterID == "" {
		waterID = ownerWaterID
	}
	if waterID != owner.WaterID || tenantCode != owner.TenantCode {
		if err := s.users.SetTenancy(ctx, owner.UserID, waterID, tenantCode); err != nil {
			return nil, apperr.Storage("assign owner residence", err)
		}
	}

	if err := s.users.AddProperty(ctx, owner.UserID, rootID); err != nil {
		return nil, apperr.Storage("record ownership", err)
	}

	s.metrics.PropertyCreated()
	s.publish(ctx, events.SubjectPropertyCreated, map[string]string{
		"property_id": property.ID,
		"root_id":     rootID,
		"owner_id":    owner.UserID,
	})
	return &property, nil
}

func (s *Service) DeleteProperty(ctx context.Context, rootID string) (err error) {
	ctx, span := tracer.Start(ctx, "property.DeleteProperty", trace.WithAttributes(attribute.String("root_id", rootID)))
	defer func() { endSpan(span, err) }()

	property, err := s.GetByRoot(ctx, rootID)
	if err != nil {
		return err
	}

	unlock, err := s.lockRoot(ctx, property.RootID)
	if err != nil {
		return err
	}
	defer unlock()

	residents, err := s.users.ListByWaterRoot(ctx, property.RootID)
	if err != nil {
		return apperr.Storage("list residents", err)
	}
	if len(residents) > 1 {
		return ErrTenantsPresent
	}

	for i := range residents {
		if err := s.relocate(ctx, &residents[i], property.RootID); err != nil {
			return err
		}
	}

	owners, err := s.users.ListOwners(ctx, property.RootID)
	if err != nil {
		return apperr.Storage("list owners", err)
	}
	for _, owner := range owners {
		if err := s.users.RemoveProperty(ctx, owner.UserID, property.RootID); err != nil {
			return apperr.Storage("remove ownership", err)
		}
	}

	if _, err := s.families.DeleteByRoot(ctx, property.RootID); err != nil {
		return apperr.Storage("delete family records", err)
	}
	if err := s.properties.Delete(ctx, property.ID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrPropertyNotFound
		}
		return apperr.Storage("delete property", err)
	}

	s.metrics.PropertyDeleted()
	s.publish(ctx, events.SubjectPropertyDeleted, map[string]string{
		"property_id": property.ID,
		"root_id":     property.RootID,
	})
	return nil
}

// relocate moves a resident of a deleted root to the owner slot of another
// property they own, chosen at random, or leaves them unhoused.
func (s *Service) relocate(ctx context.Context, resident *userdomain.User, deletedRoot string) error {
	others := make([]string, 0, len(resident.Properties))
	for _, root := range resident.Properties {
		if root != deletedRoot {
			others = append(others, root)
		}
	}

	waterID, tenantCode := "", ""
	if len(others) > 0 {
		target := others[s.pick(len(others))]
		waterID = waterid.Compose(target, waterid.OwnerTenantCode)
		tenantCode = waterid.OwnerTenantCode
	}
	if err := s.users.SetTenancy(ctx, resident.UserID, waterID, tenantCode); err != nil {
		return apperr.Storage("relocate resident", err)
	}
	return nil
}

// ViewProperties returns the properties the user owns plus the one backing
// their current water identifier, without duplicates.
func (s *Service) ViewProperties(ctx context.Context, userID string) ([]PropertyView, error) {
	user, err := s.loadUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	residenceRoot := ""
	if user.Housed() {
		if root, err := waterid.RootID(user.WaterID); err == nil {
			residenceRoot = root
		}
	}

	var owned []Property
	var residence *Property

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if len(user.Properties) == 0 {
			return nil
		}
		found, err := s.properties.ListByRootIDs(gctx, user.Properties)
		if err != nil {
			return apperr.Storage("list owned properties", err)
		}
		owned = found
		return nil
	})
	if residenceRoot != "" && !user.Owns(residenceRoot) {
		g.Go(func() error {
			found, err := s.properties.GetByRootID(gctx, residenceRoot)
			if errors.Is(err, store.ErrNotFound) {
				return nil
			}
			if err != nil {
				return apperr.Storage("load residence property", err)
			}
			residence = found
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	slices.SortStableFunc(owned, func(a, b Property) int {
		return slices.Index(user.Properties, a.RootID) - slices.Index(user.Properties, b.RootID)
	})

	views := make([]PropertyView, 0, len(owned)+1)
	seen := make(map[string]struct{}, len(owned)+1)
	for _, property := range owned {
		if _, dup := seen[property.RootID]; dup {
			continue
		}
		seen[property.RootID] = struct{}{}
		views = append(views, newView(property, true, property.RootID == residenceRoot))
	}
	if residence != nil {
		if _, dup := seen[residence.RootID]; !dup {
			views = append(views, newView(*residence, false, true))
		}
	}
	return views, nil
}

func newView(property Property, owner, residence bool) PropertyView {
	return PropertyView{
		Property:    property,
		TenantCount: property.TenantCount(),
		IsOwner:     owner,
		IsResidence: residence,
	}
}

// AddTenant allocates the lowest free tenant code under rootID to the user.
func (s *Service) AddTenant(ctx context.Context, propertyID, tenantUserID, rootID string) (_ *Tenancy, err error) {
	ctx, span := tracer.Start(ctx, "property.AddTenant", trace.WithAttributes(
		attribute.String("property_id", propertyID),
		attribute.String("root_id", rootID),
	))
	defer func() { endSpan(span, err) }()

	rootID = strings.TrimSpace(rootID)
	tenantUserID = strings.TrimSpace(tenantUserID)
	if rootID == "" || tenantUserID == "" {
		return nil, apperr.Validation("root id and user id are required")
	}

	unlock, err := s.lockRoot(ctx, rootID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	property, err := s.Get(ctx, propertyID)
	if err != nil {
		return nil, err
	}
	if property.RootID != rootID {
		return nil, ErrRootMismatch
	}

	tenant, err := s.loadUser(ctx, tenantUserID)
	if err != nil {
		return nil, err
	}
	if tenant.Housed() {
		return nil, ErrUserAlreadyHoused
	}

	// The owner slot stays reserved even if it is missing from Families.
	inUse := append(waterid.CodesOf(property.Families), waterid.OwnerTenantCode)
	tenantCode := waterid.NextTenantCode(inUse)
	if tenantCode == "" {
		return nil, ErrTenantCodesExhausted
	}
	waterID := waterid.Compose(rootID, tenantCode)

	family := Family{ID: uuid.NewString(), RootID: rootID, TenantCode: tenantCode}
	if err := s.families.Create(ctx, &family); err != nil {
		if errors.Is(err, store.ErrConflict) {
			return nil, ErrTenantCodeTaken
		}
		return nil, apperr.Storage("create family record", err)
	}
	// The root lock does not cover the user, who may be joining another
	// property at the same time. The claim only lands on an unhoused user.
	if err := s.users.ClaimTenancy(ctx, tenant.UserID, waterID, tenantCode); err != nil {
		if errors.Is(err, store.ErrConflict) {
			if err := s.families.Delete(ctx, rootID, tenantCode); err != nil {
				s.log.Warn("property: release family record failed", "water_id", waterID, "err", err)
			}
			return nil, ErrUserAlreadyHoused
		}
		return nil, apperr.Storage("assign tenant water id", err)
	}
	if err := s.properties.AppendFamily(ctx, property.ID, waterID); err != nil {
		return nil, apperr.Storage("append family", err)
	}

	s.metrics.TenantAdded()
	s.publish(ctx, events.SubjectTenantAdded, map[string]string{
		"property_id": property.ID,
		"user_id":     tenant.UserID,
		"water_id":    waterID,
	})
	return &Tenancy{UserID: tenant.UserID, RootID: rootID, TenantCode: tenantCode, WaterID: waterID}, nil
}

// RemoveTenant reclaims the user's tenant code so the next AddTenant can reuse it.
func (s *Service) RemoveTenant(ctx context.Context, propertyID, userID string) (err error) {
	ctx, span := tracer.Start(ctx, "property.RemoveTenant", trace.WithAttributes(attribute.String("property_id", propertyID)))
	defer func() { endSpan(span, err) }()

	property, err := s.Get(ctx, propertyID)
	if err != nil {
		return err
	}
	unlock, err := s.lockRoot(ctx, property.RootID)
	if err != nil {
		return err
	}
	defer unlock()

	// Everything checked below must be read under the lock: a concurrent
	// removal of the same tenant may have finished while we waited.
	if property, err = s.Get(ctx, propertyID); err != nil {
		return err
	}
	tenant, err := s.loadUser(ctx, userID)
	if err != nil {
		return err
	}
	if !tenant.Housed() {
		return ErrNotTenant
	}

	rootID, tenantCode, err := waterid.Parse(tenant.WaterID)
	if err != nil {
		return err
	}
	if rootID != property.RootID {
		return ErrNotTenant
	}
	if tenantCode == waterid.OwnerTenantCode {
		return ErrCannotRemoveOwner
	}

	if err := s.properties.RemoveFamily(ctx, property.ID, tenant.WaterID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrNotTenant
		}
		return apperr.Storage("remove family from property", err)
	}
	if err := s.families.Delete(ctx, rootID, tenantCode); err != nil && !errors.Is(err, store.ErrNotFound) {
		return apperr.Storage("delete family record", err)
	}
	if err := s.users.SetTenancy(ctx, tenant.UserID, "", ""); err != nil {
		return apperr.Storage("clear tenant water id", err)
	}

	s.metrics.TenantRemoved()
	s.publish(ctx, events.SubjectTenantRemoved, map[string]string{
		"property_id": property.ID,
		"user_id":     tenant.UserID,
		"water_id":    tenant.WaterID,
	})
	return nil
}

// ListTenants resolves every family slot except the owner's to its resident.
// Slots nobody currently holds are skipped.
func (s *Service) ListTenants(ctx context.Context, propertyID string) ([]Tenant, error) {
	property, err := s.Get(ctx, propertyID)
	if err != nil {
		return nil, err
	}
	if len(property.Families) <= 1 {
		return []Tenant{}, nil
	}

	tenants := make([]Tenant, 0, len(property.Families)-1)
	for _, waterID := range property.Families[1:] {
		user, err := s.users.FindByWaterID(ctx, waterID)
		if errors.Is(err, store.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, apperr.Storage("resolve tenant", err)
		}
		tenants = append(tenants, Tenant{
			UserID:     user.UserID,
			Name:       user.Name,
			PhotoRef:   user.PhotoRef,
			WaterID:    waterID,
			TenantCode: user.TenantCode,
		})
	}
	return tenants, nil
}

func (s *Service) Get(ctx context.Context, propertyID string) (*Property, error) {
	property, err := s.properties.GetByID(ctx, strings.TrimSpace(propertyID))
	if err != nil {
		return nil, translateProperty(err)
	}
	return property, nil
}

func (s *Service) GetByRoot(ctx context.Context, rootID string) (*Property, error) {
	property, err := s.properties.GetByRootID(ctx, strings.TrimSpace(rootID))
	if err != nil {
		return nil, translateProperty(err)
	}
	return property, nil
}

func (s *Service) AssertOwner(ctx context.Context, actorID string, property *Property) error {
	actor, err := s.loadUser(ctx, actorID)
	if err != nil {
		return err
	}
	if !actor.Owns(property.RootID) {
		return ErrNotOwner
	}
	return nil
}

func (s *Service) uniqueRootID(ctx context.Context) (string, error) {
	for i := 0; i < rootIDAttempts; i++ {
		rootID, err := s.newRootID()
		if err != nil {
			return "", err
		}
		taken, err := s.properties.RootIDExists(ctx, rootID)
		if err != nil {
			return "", apperr.Storage("check root id", err)
		}
		if !taken {
			return rootID, nil
		}
	}
	return "", ErrRootIDGeneration
}

func (s *Service) lockRoot(ctx context.Context, rootID string) (func(), error) {
	started := time.Now()
	unlock, err := s.locker.Lock(ctx, "root:"+rootID)
	if err != nil {
		return nil, apperr.Storage("lock root", err)
	}
	s.metrics.ObserveLockWait(time.Since(started).Seconds())
	return unlock, nil
}

func (s *Service) loadUser(ctx context.Context, userID string) (*userdomain.User, error) {
	user, err := s.users.Get(ctx, strings.TrimSpace(userID))
	if err != nil {
		return nil, userdomain.Translate(err)
	}
	return user, nil
}

func (s *Service) publish(ctx context.Context, subject string, data any) {
	if err := s.publisher.Publish(ctx, subject, data); err != nil {
		s.log.Warn("property: publish event failed", "subject", subject, "err", err)
	}
}

func translateProperty(err error) error {
	if errors.Is(err, store.ErrNotFound) {
		return ErrPropertyNotFound
	}
	return apperr.Storage("load property", err)
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, apperr.KindOf(err).String())
	}
	span.End()
}
