package att

import "fmt"

// Error is an ATT protocol error code.
// Vol 3, Part F, Section 3.4.1.1 of the Bluetooth Core Specification
type Error uint8

const (
	ErrorInvalidHandle                 Error = 0x01
	ErrorReadNotPermitted              Error = 0x02
	ErrorWriteNotPermitted             Error = 0x03
	ErrorInvalidPDU                    Error = 0x04
	ErrorInsufficientAuthentication    Error = 0x05
	ErrorRequestNotSupported           Error = 0x06
	ErrorInvalidOffset                 Error = 0x07
	ErrorInsufficientAuthorization     Error = 0x08
	ErrorPrepareQueueFull              Error = 0x09
	ErrorAttributeNotFound             Error = 0x0A
	ErrorAttributeNotLong              Error = 0x0B
	ErrorInsufficientEncryptionKeySize Error = 0x0C
	ErrorInvalidAttributeValueLength   Error = 0x0D
	ErrorUnlikelyError                 Error = 0x0E
	ErrorInsufficientEncryption        Error = 0x0F
	ErrorUnsupportedGroupType          Error = 0x10
	ErrorInsufficientResources         Error = 0x11
)

var errorNames = map[Error]string{
	ErrorInvalidHandle:                 "invalid handle",
	ErrorReadNotPermitted:              "read not permitted",
	ErrorWriteNotPermitted:             "write not permitted",
	ErrorInvalidPDU:                    "invalid pdu",
	ErrorInsufficientAuthentication:    "insufficient authentication",
	ErrorRequestNotSupported:           "request not supported",
	ErrorInvalidOffset:                 "invalid offset",
	ErrorInsufficientAuthorization:     "insufficient authorization",
	ErrorPrepareQueueFull:              "prepare queue full",
	ErrorAttributeNotFound:             "attribute not found",
	ErrorAttributeNotLong:              "attribute not long",
	ErrorInsufficientEncryptionKeySize: "insufficient encryption key size",
	ErrorInvalidAttributeValueLength:   "invalid attribute value length",
	ErrorUnlikelyError:                 "unlikely error",
	ErrorInsufficientEncryption:        "insufficient encryption",
	ErrorUnsupportedGroupType:          "unsupported group type",
	ErrorInsufficientResources:         "insufficient resources",
}

// IsApplication reports whether e falls in the application error range.
func (e Error) IsApplication() bool {
	return e >= 0x80 && e <= 0x9F
}

func (e Error) Error() string {
	if s, ok := errorNames[e]; ok {
		return "att: " + s
	}
	if e.IsApplication() {
		return fmt.Sprintf("att: application error 0x%02x", uint8(e))
	}
	return fmt.Sprintf("att: error 0x%02x", uint8(e))
}
