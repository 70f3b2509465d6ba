// Package security holds the TLS settings shared by the HTTP adapter and
// the contractctl configuration file.
//
//	tlsCfg, err := (&security.TLSConfig{CAFile: "ca.pem", MinVersion: "1.3"}).Build()
package security
