package model

import (
	"time"

	"gorm.io/gorm"
)

type SignInStatus string

const (
	StatusSuccess SignInStatus = "SUCCESS"
	StatusFailed  SignInStatus = "FAILED"
)

type History struct {
	gorm.Model
	Provider   Provider     `gorm:"not null;index"`
	Status     SignInStatus `gorm:"not null"`
	ErrMsg     string
	SignedInAt time.Time `gorm:"not null"`
}
