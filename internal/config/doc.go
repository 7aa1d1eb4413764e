// Package config loads updoot-server runtime configuration.
//
// Configuration comes from a YAML file with ${VAR} environment expansion,
// optionally supplemented by a .env file and per-field environment
// variables (JELLYFIN_URL, JELLYFIN_API_KEY, UPDOOT_ADMIN_ACTOR_IDS, ...).
// Environment values win over the file, and the file may be absent
// entirely when the required Jellyfin settings come from the environment.
package config
