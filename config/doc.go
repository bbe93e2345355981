/*
Package config loads resourcestore settings.

Values start from Default, are overridden by dotenv files read with godotenv, and finally by the
process environment. Fields are bound through `env` struct tags:

	RESOURCESTORE_BACKEND=sqlite
	RESOURCESTORE_DSN=file:todos.db
	RESOURCESTORE_RESOURCES=resources.yaml
	LOG_LEVEL=debug
*/
package config
