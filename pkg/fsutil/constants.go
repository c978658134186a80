package fsutil

// File and directory permission constants.
const (
	// Default file modes.
	FileModeDefault = 0o644 // -rw-r--r--: downloaded products
	FileModeSecure  = 0o600 // -rw-------: config files that may carry credentials

	// Directory modes.
	DirModeDefault = 0o755 // drwxr-xr-x
	DirModePrivate = 0o700 // drwx------

	// TempPattern is the os.CreateTemp pattern used for in-flight downloads.
	// The leading dot keeps partial files hidden from casual directory listings.
	TempPattern = ".meteosat-*.part"
)
