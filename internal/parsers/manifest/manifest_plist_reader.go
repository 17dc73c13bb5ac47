package manifest

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"howett.net/plist"

	"github.com/deploymenttheory/go-ibackup/internal/interfaces"
	"github.com/deploymenttheory/go-ibackup/internal/types"
)

// manifestPlist mirrors the Manifest.plist keys the engine reads
type manifestPlist struct {
	IsEncrypted    bool          `plist:"IsEncrypted"`
	ManifestKey    []byte        `plist:"ManifestKey"`
	BackupKeyBag   []byte        `plist:"BackupKeyBag"`
	Version        string        `plist:"Version"`
	Date           time.Time     `plist:"Date"`
	WasPasscodeSet bool          `plist:"WasPasscodeSet"`
	Lockdown       lockdownPlist `plist:"Lockdown"`
}

type lockdownPlist struct {
	DeviceName     string `plist:"DeviceName"`
	ProductType    string `plist:"ProductType"`
	ProductVersion string `plist:"ProductVersion"`
	BuildVersion   string `plist:"BuildVersion"`
	SerialNumber   string `plist:"SerialNumber"`
	UniqueDeviceID string `plist:"UniqueDeviceID"`
}

// manifestReader implements the ManifestReader interface
type manifestReader struct{}

var _ interfaces.ManifestReader = (*manifestReader)(nil)

// NewManifestReader creates a new ManifestReader
func NewManifestReader() interfaces.ManifestReader {
	return &manifestReader{}
}

// ReadManifest parses the Manifest.plist at path
func (mr *manifestReader) ReadManifest(path string) (*types.ManifestInfo, error) {
	return ReadManifest(path)
}

// ReadManifest parses the Manifest.plist at path. A missing file yields types.ErrManifestNotFound.
func ReadManifest(path string) (*types.ManifestInfo, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, types.ErrManifestNotFound
		}
		return nil, fmt.Errorf("failed to read %s: %w", types.ManifestPlistName, err)
	}
	return ParseManifest(data)
}

// ParseManifest decodes Manifest.plist contents in any property list format
func ParseManifest(data []byte) (*types.ManifestInfo, error) {
	var mp manifestPlist
	if _, err := plist.Unmarshal(data, &mp); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", types.ManifestPlistName, err)
	}

	return &types.ManifestInfo{
		IsEncrypted:    mp.IsEncrypted,
		ManifestKey:    mp.ManifestKey,
		BackupKeyBag:   mp.BackupKeyBag,
		Version:        mp.Version,
		Date:           mp.Date,
		WasPasscodeSet: mp.WasPasscodeSet,
		Lockdown: types.LockdownInfo{
			DeviceName:     mp.Lockdown.DeviceName,
			ProductType:    mp.Lockdown.ProductType,
			ProductVersion: mp.Lockdown.ProductVersion,
			BuildVersion:   mp.Lockdown.BuildVersion,
			SerialNumber:   mp.Lockdown.SerialNumber,
			UniqueDeviceID: mp.Lockdown.UniqueDeviceID,
		},
	}, nil
}

// EncodeManifest writes info as a binary property list
func EncodeManifest(info *types.ManifestInfo) ([]byte, error) {
	mp := manifestPlist{
		IsEncrypted:    info.IsEncrypted,
		ManifestKey:    info.ManifestKey,
		BackupKeyBag:   info.BackupKeyBag,
		Version:        info.Version,
		Date:           info.Date,
		WasPasscodeSet: info.WasPasscodeSet,
		Lockdown: lockdownPlist{
			DeviceName:     info.Lockdown.DeviceName,
			ProductType:    info.Lockdown.ProductType,
			ProductVersion: info.Lockdown.ProductVersion,
			BuildVersion:   info.Lockdown.BuildVersion,
			SerialNumber:   info.Lockdown.SerialNumber,
			UniqueDeviceID: info.Lockdown.UniqueDeviceID,
		},
	}
	return plist.Marshal(mp, plist.BinaryFormat)
}
