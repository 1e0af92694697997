package djconf

import "fmt"

// StorageBackend describes a file storage class selected by
// DEFAULT_FILE_STORAGE or STATICFILES_STORAGE.
type StorageBackend struct {
	Path string
	// Remote backends keep files in an S3-compatible bucket.
	Remote bool
	// LocationSetting names the setting holding the key prefix (remote)
	// or root directory (local).
	LocationSetting string
}

// Storage backend paths known to the core.
const (
	StorageMediaS3      = "dj_core.storage.MediaS3"
	StorageStaticS3     = "dj_core.storage.StaticS3"
	StorageFileSystem   = "django.core.files.storage.FileSystemStorage"
	StorageStaticFiles  = "django.contrib.staticfiles.storage.StaticFilesStorage"
	storageCapabilityS3 = "storages"
)

func init() {
	Register(StorageMediaS3, StorageBackend{Path: StorageMediaS3, Remote: true, LocationSetting: "MEDIA_URL"})
	Register(StorageStaticS3, StorageBackend{Path: StorageStaticS3, Remote: true, LocationSetting: "STATIC_URL"})
	Register(StorageFileSystem, StorageBackend{Path: StorageFileSystem, LocationSetting: "MEDIA_ROOT"})
	Register(StorageStaticFiles, StorageBackend{Path: StorageStaticFiles, LocationSetting: "STATIC_ROOT"})
}

// ImportStorage resolves a storage path to its backend descriptor.
func ImportStorage(path string) (StorageBackend, error) {
	v, err := ImportString(path)
	if err != nil {
		return StorageBackend{}, err
	}
	b, ok := v.(StorageBackend)
	if !ok {
		return StorageBackend{}, fmt.Errorf("%w: could not import %q: %T is not a storage backend", ErrImportResolution, path, v)
	}
	return b, nil
}
