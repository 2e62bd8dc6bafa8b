package config

import "github.com/joho/godotenv"

// loadDotEnv best-effort loads a .env file into the process environment.
// Absence of a .env file is not an error — most deployments set the
// environment directly.
func loadDotEnv() {
	_ = godotenv.Load()
}
