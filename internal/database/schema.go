package database

import (
	"context"
	"database/sql"
)

// schema holds the DDL applied at startup. Uniqueness invariants the rest of
// the system depends on live here: users.username, users.email (ciphertext),
// devices.mac and the (mac, user_id) pair on device_users are all enforced by
// the database, not by application-level checks.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id            CHAR(36)     NOT NULL PRIMARY KEY,
		username      VARCHAR(128) NOT NULL,
		email         VARCHAR(512) NOT NULL,
		password_hash VARCHAR(200) NOT NULL,
		role          VARCHAR(50)  NOT NULL DEFAULT 'user',
		phone         VARCHAR(512) NULL,
		address       VARCHAR(255) NULL,
		created_at    DATETIME     NOT NULL DEFAULT CURRENT_TIMESTAMP,
		UNIQUE KEY uq_users_username (username),
		UNIQUE KEY uq_users_email (email)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS shelters (
		id          CHAR(36)     NOT NULL PRIMARY KEY,
		name        VARCHAR(255) NOT NULL,
		address     VARCHAR(500) NOT NULL,
		phone       VARCHAR(50)  NULL,
		email       VARCHAR(512) NULL,
		description VARCHAR(1000) NULL,
		owner_id    CHAR(36)     NOT NULL,
		created_at  DATETIME     NOT NULL DEFAULT CURRENT_TIMESTAMP,
		UNIQUE KEY uq_shelters_email (email),
		CONSTRAINT fk_shelters_owner FOREIGN KEY (owner_id) REFERENCES users(id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS devices (
		id            CHAR(36)     NOT NULL PRIMARY KEY,
		mac           CHAR(17)     NOT NULL,
		name          VARCHAR(128) NOT NULL,
		location      VARCHAR(255) NOT NULL,
		user_id       CHAR(36)     NOT NULL,
		registered_at DATETIME     NOT NULL DEFAULT CURRENT_TIMESTAMP,
		last_seen_at  DATETIME     NULL,
		UNIQUE KEY uq_devices_mac (mac),
		CONSTRAINT fk_devices_user FOREIGN KEY (user_id) REFERENCES users(id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS device_users (
		id           CHAR(36)     NOT NULL PRIMARY KEY,
		mac          CHAR(17)     NOT NULL,
		user_id      CHAR(36)     NOT NULL,
		api_key_hash VARCHAR(200) NULL,
		created_at   DATETIME     NOT NULL DEFAULT CURRENT_TIMESTAMP,
		UNIQUE KEY uq_device_users_mac_user (mac, user_id),
		CONSTRAINT fk_device_users_mac FOREIGN KEY (mac) REFERENCES devices(mac),
		CONSTRAINT fk_device_users_user FOREIGN KEY (user_id) REFERENCES users(id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS measurements (
		id             CHAR(36) NOT NULL PRIMARY KEY,
		mac            CHAR(17) NOT NULL,
		temperature    DOUBLE   NOT NULL,
		co2            DOUBLE   NOT NULL,
		humidity       DOUBLE   NOT NULL,
		ammonia        DOUBLE   NULL,
		voc            DOUBLE   NULL,
		user_id        CHAR(36) NOT NULL,
		device_user_id CHAR(36) NOT NULL,
		recorded_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		KEY idx_measurements_mac_time (mac, recorded_at),
		KEY idx_measurements_user_time (user_id, recorded_at),
		CONSTRAINT fk_measurements_mac FOREIGN KEY (mac) REFERENCES devices(mac),
		CONSTRAINT fk_measurements_link FOREIGN KEY (device_user_id) REFERENCES device_users(id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS pets (
		id           CHAR(36)      NOT NULL PRIMARY KEY,
		name         VARCHAR(100)  NULL,
		species      VARCHAR(100)  NULL,
		breed        VARCHAR(100)  NULL,
		description  VARCHAR(1000) NULL,
		image_url    VARCHAR(1000) NULL,
		price        VARCHAR(50)   NULL,
		external_url VARCHAR(500)  NOT NULL,
		shelter_id   CHAR(36)      NOT NULL,
		created_at   DATETIME      NOT NULL DEFAULT CURRENT_TIMESTAMP,
		UNIQUE KEY uq_pets_external_url (external_url),
		CONSTRAINT fk_pets_shelter FOREIGN KEY (shelter_id) REFERENCES shelters(id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
}

// EnsureSchema applies the DDL above. Statements are idempotent so running it
// on every startup is safe.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
