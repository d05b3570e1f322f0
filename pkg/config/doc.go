// Package config loads the specmock server configuration.
//
// Values come, in increasing precedence, from the built-in defaults, a
// config file (specmock.yaml, specmock.yml, specmock.json or .specmock.yaml
// in the working directory unless a path is given), SPECMOCK_* environment
// variables and bound command-line flags:
//
//	v := config.NewViper()
//	_ = v.BindPFlag("server.port", cmd.Flags().Lookup("port"))
//	cfg, err := config.Load(v, "")
//
// Load validates the result; the returned error lists every invalid field.
package config
