package queries

const userColumns = `id, username, password_hash, city, bio_short, country, languages, bio_full, hobbies, created_at, updated_at`

const (
	QueryCreateUser = `
		INSERT INTO users (username, password_hash, city, bio_short, country, languages, bio_full, hobbies, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id;
	`
	QueryGetUserByID = `
		SELECT ` + userColumns + `
		FROM users
		WHERE id = $1;
	`
	QueryGetUserByUsername = `
		SELECT ` + userColumns + `
		FROM users
		WHERE lower(username) = lower($1);
	`
	QueryListUsersByUsernames = `
		SELECT id, username
		FROM users
		WHERE lower(username) = ANY($1::text[])
		ORDER BY username;
	`
	QueryUpdateUsername = `
		UPDATE users
		SET username = $2, updated_at = now()
		WHERE id = $1;
	`
	QueryUpdatePasswordHash = `
		UPDATE users
		SET password_hash = $2, updated_at = now()
		WHERE id = $1;
	`
	QuerySearchUsers = `
		SELECT id, username
		FROM users
		WHERE username ILIKE $1 ESCAPE '\' AND id <> $2
		ORDER BY username
		LIMIT $3;
	`
)
