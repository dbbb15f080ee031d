// Package repository implements persistence over MySQL with hand-written SQL.
// This file defines error values reused across repositories. Uniqueness is
// enforced by database constraints, not application checks: repositories map
// duplicate-key violations (MySQL error 1062) onto these sentinels so callers
// can either report a conflict or treat the violation as "someone else won the
// race" and re-read.
package repository

import (
	"errors"
	"strings"

	"github.com/go-sql-driver/mysql"
)

var (
	// ErrUsernameExists signals a duplicate users.username.
	ErrUsernameExists = errors.New("username already exists")
	// ErrEmailExists signals a duplicate users.email ciphertext.
	ErrEmailExists = errors.New("email already exists")
	// ErrDeviceExists signals a duplicate devices.mac.
	ErrDeviceExists = errors.New("device already registered")
	// ErrLinkExists signals a duplicate (mac, user_id) device link.
	ErrLinkExists = errors.New("device link already exists")
	// ErrShelterEmailExists signals a duplicate shelters.email ciphertext.
	ErrShelterEmailExists = errors.New("shelter email already exists")
	// ErrPetExists signals a duplicate pets.external_url.
	ErrPetExists = errors.New("pet already imported")
)

// isDuplicate reports whether err is a MySQL duplicate-key violation on the
// named unique key. An empty key matches any duplicate violation.
func isDuplicate(err error, key string) bool {
	var me *mysql.MySQLError
	if !errors.As(err, &me) || me.Number != 1062 {
		return false
	}
	return key == "" || strings.Contains(me.Message, key)
}
