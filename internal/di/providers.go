package di

import (
	"wayfarer/internal/models"
	"wayfarer/internal/structures"
)

func provideDigestStore(conf *structures.Config) *models.DigestStore {
	return models.NewDigestStore(conf.Sessions.DigestCap)
}
