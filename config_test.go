package main

import "testing"

func TestConfigValidate(t *testing.T) {
	cases := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"defaults", Config{port: 8080, adminNames: []string{"admin"}}, false},
		{"port too low", Config{port: 0, adminNames: []string{"admin"}}, true},
		{"port too high", Config{port: 70000, adminNames: []string{"admin"}}, true},
		{"cert without key", Config{port: 8080, adminNames: []string{"admin"}, tlsCert: "cert.pem"}, true},
		{"key without cert", Config{port: 8080, adminNames: []string{"admin"}, tlsKey: "key.pem"}, true},
		{"cert and key", Config{port: 8080, adminNames: []string{"admin"}, tlsCert: "cert.pem", tlsKey: "key.pem"}, false},
		{"no admin names", Config{port: 8080}, true},
	}

	for _, tc := range cases {
		err := tc.cfg.validate()
		if (err != nil) != tc.wantErr {
			t.Fatalf("%s: validate() = %v, wantErr %v", tc.name, err, tc.wantErr)
		}
	}
}

func TestConfigScheme(t *testing.T) {
	cfg := Config{}
	if got := cfg.scheme(); got != "http" {
		t.Fatalf("scheme without tls = %q, want http", got)
	}

	cfg = Config{tlsCert: "cert.pem", tlsKey: "key.pem"}
	if got := cfg.scheme(); got != "https" {
		t.Fatalf("scheme with tls = %q, want https", got)
	}
}
