package user

import "time"

// ProfileCache holds display profiles, which never change after signup.
type ProfileCache interface {
	Get(userID string) (Profile, bool)
	Set(profile Profile, ttl time.Duration)
	Delete(userID string)
}

type noopCache struct{}

func (noopCache) Get(string) (Profile, bool) {
	return Profile{}, false
}

func (noopCache) Set(Profile, time.Duration) {}

func (noopCache) Delete(string) {}
