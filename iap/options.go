package iap

// DefaultChunkSize matches the 1 KiB block of the YMODEM transfer feeding the loader.
const DefaultChunkSize = 1024

// Config holds the IAP configuration shared by Driver, Protection and Programmer.
type Config struct {
	// ProgressCallback is called during Programmer.Program (optional)
	ProgressCallback ProgressCallback

	// Logger is used for logging operations (optional)
	Logger Logger

	// ChunkSize is the number of bytes handed to Driver.Write per call.
	// Rounded up to a multiple of the program unit.
	ChunkSize int

	// VerifyAfterProgram re-reads the whole image after programming
	VerifyAfterProgram bool

	// ProtectAfterProgram enables write protection after a successful Program
	ProtectAfterProgram bool

	// Unprotect lets Program remove write protection before erasing
	Unprotect bool

	// LaunchAfterProtect reloads the option bytes after SetProtection.
	// On hardware the reload resets the device.
	LaunchAfterProtect bool
}

// defaultConfig returns the default configuration.
func defaultConfig() Config {
	return Config{
		ChunkSize:          DefaultChunkSize,
		VerifyAfterProgram: true,
	}
}

func newConfig(opts []Option) Config {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// Option is a functional option for configuring Driver, Protection and Programmer.
type Option func(*Config)

// WithProgressCallback sets a callback function to track programming progress.
func WithProgressCallback(callback ProgressCallback) Option {
	return func(c *Config) {
		c.ProgressCallback = callback
	}
}

// WithLogger sets a logger for flash operations.
//
// Example:
//
//	drv, err := iap.NewDriver(ctrl, region, iap.WithLogger(iap.NewSlogLogger(slog.Default())))
func WithLogger(logger Logger) Option {
	return func(c *Config) {
		c.Logger = logger
	}
}

// WithChunkSize sets the number of bytes written per Driver.Write call.
// Values outside 1..65536 are ignored.
func WithChunkSize(size int) Option {
	return func(c *Config) {
		if size > 0 && size <= 65536 {
			c.ChunkSize = size
		}
	}
}

// WithVerifyAfterProgram enables or disables the full read-back pass after programming.
// Default is true. Each unit is still verified as it is written.
func WithVerifyAfterProgram(verify bool) Option {
	return func(c *Config) {
		c.VerifyAfterProgram = verify
	}
}

// WithProtectAfterProgram enables write protection of the application once programmed.
func WithProtectAfterProgram(protect bool) Option {
	return func(c *Config) {
		c.ProtectAfterProgram = protect
	}
}

// WithUnprotect allows Program to disable write protection before erasing.
// Without it Program fails with ErrWriteProtected on a protected region.
func WithUnprotect(unprotect bool) Option {
	return func(c *Config) {
		c.Unprotect = unprotect
	}
}

// WithLaunchAfterProtect reloads the option bytes after each SetProtection.
func WithLaunchAfterProtect(launch bool) Option {
	return func(c *Config) {
		c.LaunchAfterProtect = launch
	}
}

// logDebug logs a debug message if a logger is configured.
func (c *Config) logDebug(msg string, keysAndValues ...interface{}) {
	if c.Logger != nil {
		c.Logger.Debug(msg, keysAndValues...)
	}
}

// logInfo logs an info message if a logger is configured.
func (c *Config) logInfo(msg string, keysAndValues ...interface{}) {
	if c.Logger != nil {
		c.Logger.Info(msg, keysAndValues...)
	}
}

// logError logs an error message if a logger is configured.
func (c *Config) logError(msg string, keysAndValues ...interface{}) {
	if c.Logger != nil {
		c.Logger.Error(msg, keysAndValues...)
	}
}

// reportProgress calls the progress callback if configured.
func (c *Config) reportProgress(progress Progress) {
	if c.ProgressCallback != nil {
		c.ProgressCallback(progress)
	}
}
