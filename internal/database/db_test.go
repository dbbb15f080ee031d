package database

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestBuildDSN(t *testing.T) {
	require.Equal(t,
		"shelter:s3cret@tcp(db:3306)/smartshelter?charset=utf8mb4&parseTime=true&loc=UTC",
		buildDSN("shelter", "s3cret", "db", "3306", "smartshelter"))

	// Passwordless local setups omit the colon entirely.
	require.Equal(t,
		"root@tcp(localhost:3306)/smartshelter?charset=utf8mb4&parseTime=true&loc=UTC",
		buildDSN("root", "", "localhost", "3306", "smartshelter"))
}

func TestPoolDefaults(t *testing.T) {
	p := Pool{}.withDefaults()
	require.Equal(t, 25, p.MaxOpen)
	require.Equal(t, 25, p.MaxIdle)
	require.Equal(t, 30*time.Minute, p.ConnLifetime)

	// Idle follows a custom open bound unless set explicitly.
	p = Pool{MaxOpen: 10}.withDefaults()
	require.Equal(t, 10, p.MaxIdle)

	p = Pool{MaxOpen: 10, MaxIdle: 4, ConnLifetime: time.Minute}.withDefaults()
	require.Equal(t, Pool{MaxOpen: 10, MaxIdle: 4, ConnLifetime: time.Minute}, p)
}
