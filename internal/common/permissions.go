package common

// File permission constants shared by everything that writes under the content root
const (
	// FilePermissionSecure is used for files holding credentials or config
	FilePermissionSecure = 0600

	// FilePermissionNormal is used for diff files and metrics output
	FilePermissionNormal = 0644

	// DirPermissionSecure is used for the configuration directory
	DirPermissionSecure = 0700

	// DirPermissionNormal is used for the content root, clones and the archive
	DirPermissionNormal = 0755
)
