package types

import "time"

// BackupSummary describes a backup without decrypting any of its contents.
type BackupSummary struct {
	Path           string         `json:"path" yaml:"path"`
	IsEncrypted    bool           `json:"is_encrypted" yaml:"is_encrypted"`
	Version        string         `json:"version,omitempty" yaml:"version,omitempty"`
	Date           time.Time      `json:"date,omitempty" yaml:"date,omitempty"`
	WasPasscodeSet bool           `json:"was_passcode_set" yaml:"was_passcode_set"`
	Lockdown       LockdownInfo   `json:"lockdown" yaml:"lockdown"`
	Keybag         *KeybagSummary `json:"keybag,omitempty" yaml:"keybag,omitempty"`
}

// KeybagSummary lists the public parameters of a backup keybag.
// PasswordClasses are the classes unwrapped with the password-derived key.
type KeybagSummary struct {
	UUID            string            `json:"uuid" yaml:"uuid"`
	Type            uint32            `json:"type" yaml:"type"`
	Version         uint32            `json:"version" yaml:"version"`
	Iterations      uint32            `json:"iterations" yaml:"iterations"`
	SecondRoundIter uint32            `json:"second_round_iterations" yaml:"second_round_iterations"`
	PasswordClasses []uint32          `json:"password_classes" yaml:"password_classes"`
	ClassKeys       []ClassKeySummary `json:"class_keys" yaml:"class_keys"`
}

// ClassKeySummary describes one wrapped class key.
type ClassKeySummary struct {
	Class      uint32 `json:"class" yaml:"class"`
	Name       string `json:"name" yaml:"name"`
	Wrap       uint32 `json:"wrap" yaml:"wrap"`
	KeyType    uint32 `json:"key_type" yaml:"key_type"`
	Asymmetric bool   `json:"asymmetric" yaml:"asymmetric"`
}
