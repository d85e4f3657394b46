package naming

// ImageSuffix is the extension of every file in the image repository.
const ImageSuffix = ".qcow2"

const (
	// InstanceDiskName is the copy-on-write disk inside an instance directory.
	InstanceDiskName = "instance.qcow2"

	// ConfigDriveISOName is the configuration drive inside an instance directory.
	ConfigDriveISOName = "cidata.iso"

	// StagingDirName is the transient directory the configuration drive is built from.
	StagingDirName = "cidata-dir"
)

// Configuration drive member files.
const (
	UserDataFile      = "user-data"
	MetaDataFile      = "meta-data"
	NetworkConfigFile = "network-config"
)

// ImageFileName returns the repository file name for an image digest.
// Format: {hex}.qcow2
func ImageFileName(hex string) string {
	return hex + ImageSuffix
}
