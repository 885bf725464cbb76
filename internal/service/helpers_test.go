package service

import "github.com/launchlist/waitlist-service/internal/auth"

func bcryptHash(password string) (string, error) {
	return auth.HashPassword(password, 4)
}
