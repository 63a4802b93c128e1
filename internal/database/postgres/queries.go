package postgres

// SQL statements for the devin_test table.
const (
	QueryCreateTable = `
		CREATE TABLE IF NOT EXISTS devin_test (
			id   INT PRIMARY KEY,
			name TEXT,
			data TEXT
		)`

	QueryInsertRow = `
		INSERT INTO devin_test (id, name, data)
		VALUES ($1, $2, $3)
		ON CONFLICT (id) DO NOTHING`

	QueryUpdateData = `
		UPDATE devin_test
		SET data = $2
		WHERE id = $1`

	QueryDeleteRow = `
		DELETE FROM devin_test
		WHERE id = $1`

	QueryGetRow = `
		SELECT id, name, data
		FROM devin_test
		WHERE id = $1`

	QueryListRows = `
		SELECT id, name, data
		FROM devin_test
		ORDER BY id`
)
