package types

// Protection classes used by iOS data protection. A backup keybag carries one class key per class.

// ProtectionClass identifies a data protection class.
type ProtectionClass uint32

const (
	// ProtectionClassA indicates complete protection.
	ProtectionClassA ProtectionClass = 1

	// ProtectionClassB indicates protected unless open. Its class key is asymmetric.
	ProtectionClassB ProtectionClass = 2

	// ProtectionClassC indicates protected until first user authentication.
	ProtectionClassC ProtectionClass = 3

	// ProtectionClassD indicates no protection.
	ProtectionClassD ProtectionClass = 4

	// ProtectionClassAThisDeviceOnly through ProtectionClassDThisDeviceOnly are the
	// non-migratory variants of classes A to D.
	ProtectionClassAThisDeviceOnly ProtectionClass = 8
	ProtectionClassBThisDeviceOnly ProtectionClass = 9
	ProtectionClassCThisDeviceOnly ProtectionClass = 10
	ProtectionClassDThisDeviceOnly ProtectionClass = 11
)

var protectionClassNames = map[ProtectionClass]string{
	ProtectionClassA:               "NSFileProtectionComplete",
	ProtectionClassB:               "NSFileProtectionCompleteUnlessOpen",
	ProtectionClassC:               "NSFileProtectionCompleteUntilFirstUserAuthentication",
	ProtectionClassD:               "NSFileProtectionNone",
	ProtectionClassAThisDeviceOnly: "kSecAttrAccessibleWhenUnlockedThisDeviceOnly",
	ProtectionClassBThisDeviceOnly: "kSecAttrAccessibleAfterFirstUnlockThisDeviceOnly",
	ProtectionClassCThisDeviceOnly: "kSecAttrAccessibleAlwaysThisDeviceOnly",
	ProtectionClassDThisDeviceOnly: "kSecAttrAccessibleWhenPasscodeSetThisDeviceOnly",
}

// String returns the Apple name of the protection class, or "Unknown".
func (pc ProtectionClass) String() string {
	if name, ok := protectionClassNames[pc]; ok {
		return name
	}
	return "Unknown"
}
