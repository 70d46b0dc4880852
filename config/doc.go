// Package config loads manager settings from a TOML file.
//
// Load resolves the file in this order:
//
//  1. The explicit path when one is given
//  2. Otherwise ~/.config/statekit/config.toml
//  3. When the file does not exist, Default()
//
// Keys missing from the file keep their default. All accessor toggles and
// write protection default to true.
//
//	id = "main"
//	schema_file = "schema.yaml"
//	nested_setters = false
//
//	[storage]
//	role = "provider"
//	provider_id = "main"
//	path = "~/.local/share/statekit/shared.db"
//	key_prefix = "statekit:"
//	poll_interval = "250ms"
//	private_paths = ["token", "session.secret"]
//
// private_paths entries are dotted state paths. A relative schema_file or
// storage path is resolved against the directory holding the config file.
package config
