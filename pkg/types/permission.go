package types

// Permission nodes checked by the mask commands.
const (
	PermMask       = "masquerade.mask"
	PermMaskOption = "masquerade.mask.option"
)

// MaskPermission returns the node required to disguise as entityTypeID.
func MaskPermission(entityTypeID string) string {
	return PermMask + "." + entityTypeID
}

// OptionPermission returns the node required to modify the key keyID.
func OptionPermission(keyID string) string {
	return PermMaskOption + "." + keyID
}
