package domain

import "time"

// SubjectType identifies who a token was issued to.
type SubjectType string

const (
	SubjectTypeAdmin SubjectType = "ADMIN"
)

// AdminSession is the result of a successful admin login.
type AdminSession struct {
	Email     string
	Token     string
	ExpiresAt time.Time
}
