package config

func loadTestConfig(cfg *Config) {
	cfg.DatabaseFilePath = ":memory:"
	cfg.ServerHost = "127.0.0.1"
	// Port 0 lets the listener pick a free port during tests.
	cfg.ServerPort = 0
	cfg.TrashDir = "./tmp/trash"
}
