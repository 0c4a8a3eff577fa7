package bgapi

import (
	"fmt"

	"github.com/muxable/bgapi/pkg/att"
)

// Result is the uint16 result code carried by most responses and by a few
// events. Zero is success.
type Result uint16

const (
	ResultSuccess Result = 0x0000

	// BGAPI errors
	ResultInvalidParameter  Result = 0x0180
	ResultWrongState        Result = 0x0181
	ResultOutOfMemory       Result = 0x0182
	ResultNotImplemented    Result = 0x0183
	ResultInvalidCommand    Result = 0x0184
	ResultTimeout           Result = 0x0185
	ResultNotConnected      Result = 0x0186
	ResultFlow              Result = 0x0187
	ResultUserAttribute     Result = 0x0188
	ResultInvalidLicenseKey Result = 0x0189
	ResultCommandTooLong    Result = 0x018A
	ResultOutOfBonds        Result = 0x018B

	// Bluetooth controller errors
	ResultAuthenticationFailure           Result = 0x0205
	ResultPinOrKeyMissing                 Result = 0x0206
	ResultMemoryCapacityExceeded          Result = 0x0207
	ResultConnectionTimeout               Result = 0x0208
	ResultConnectionLimitExceeded         Result = 0x0209
	ResultCommandDisallowed               Result = 0x020C
	ResultInvalidCommandParameters        Result = 0x0212
	ResultRemoteUserTerminatedConnection  Result = 0x0213
	ResultConnectionTerminatedByLocalHost Result = 0x0216
	ResultLLResponseTimeout               Result = 0x0222
	ResultLLInstantPassed                 Result = 0x0228
	ResultControllerBusy                  Result = 0x023A
	ResultUnacceptableConnectionInterval  Result = 0x023B
	ResultDirectedAdvertisingTimeout      Result = 0x023C
	ResultMICFailure                      Result = 0x023D
	ResultConnectionFailedToBeEstablished Result = 0x023E

	// Security manager errors
	ResultPasskeyEntryFailed     Result = 0x0301
	ResultOOBDataNotAvailable    Result = 0x0302
	ResultAuthenticationRequired Result = 0x0303
	ResultConfirmValueFailed     Result = 0x0304
	ResultPairingNotSupported    Result = 0x0305
	ResultEncryptionKeySize      Result = 0x0306
	ResultCommandNotSupported    Result = 0x0307
	ResultUnspecifiedReason      Result = 0x0308
	ResultRepeatedAttempts       Result = 0x0309
	ResultInvalidSMParameters    Result = 0x030A

	// Attribute protocol errors occupy 0x0401-0x04ff; the low byte is the ATT
	// error code.
	resultATTBase Result = 0x0400
)

var resultNames = map[Result]string{
	ResultSuccess:                         "success",
	ResultInvalidParameter:                "invalid_parameter",
	ResultWrongState:                      "device_in_wrong_state",
	ResultOutOfMemory:                     "out_of_memory",
	ResultNotImplemented:                  "feature_not_implemented",
	ResultInvalidCommand:                  "command_not_recognized",
	ResultTimeout:                         "timeout",
	ResultNotConnected:                    "not_connected",
	ResultFlow:                            "flow",
	ResultUserAttribute:                   "user_attribute",
	ResultInvalidLicenseKey:               "invalid_license_key",
	ResultCommandTooLong:                  "command_too_long",
	ResultOutOfBonds:                      "out_of_bonds",
	ResultAuthenticationFailure:           "authentication_failure",
	ResultPinOrKeyMissing:                 "pin_or_key_missing",
	ResultMemoryCapacityExceeded:          "memory_capacity_exceeded",
	ResultConnectionTimeout:               "connection_timeout",
	ResultConnectionLimitExceeded:         "connection_limit_exceeded",
	ResultCommandDisallowed:               "command_disallowed",
	ResultInvalidCommandParameters:        "invalid_command_parameters",
	ResultRemoteUserTerminatedConnection:  "remote_user_terminated_connection",
	ResultConnectionTerminatedByLocalHost: "connection_terminated_by_local_host",
	ResultLLResponseTimeout:               "ll_response_timeout",
	ResultLLInstantPassed:                 "ll_instant_passed",
	ResultControllerBusy:                  "controller_busy",
	ResultUnacceptableConnectionInterval:  "unacceptable_connection_interval",
	ResultDirectedAdvertisingTimeout:      "directed_advertising_timeout",
	ResultMICFailure:                      "mic_failure",
	ResultConnectionFailedToBeEstablished: "connection_failed_to_be_established",
	ResultPasskeyEntryFailed:              "passkey_entry_failed",
	ResultOOBDataNotAvailable:             "oob_data_not_available",
	ResultAuthenticationRequired:          "authentication_requirements",
	ResultConfirmValueFailed:              "confirm_value_failed",
	ResultPairingNotSupported:             "pairing_not_supported",
	ResultEncryptionKeySize:               "encryption_key_size",
	ResultCommandNotSupported:             "command_not_supported",
	ResultUnspecifiedReason:               "unspecified_reason",
	ResultRepeatedAttempts:                "repeated_attempts",
	ResultInvalidSMParameters:             "invalid_parameters",
}

// Success reports whether r is ResultSuccess.
func (r Result) Success() bool { return r == ResultSuccess }

// ATT returns the attribute protocol error embedded in r, if any.
func (r Result) ATT() (att.Error, bool) {
	if r&0xFF00 != resultATTBase || r == resultATTBase {
		return 0, false
	}
	return att.Error(r & 0xFF), true
}

func (r Result) String() string {
	if s, ok := resultNames[r]; ok {
		return s
	}
	if e, ok := r.ATT(); ok {
		return e.Error()
	}
	return fmt.Sprintf("Unknown(0x%04x)", uint16(r))
}

// ResultBody is a response body that carries nothing but a result code.
type ResultBody struct {
	Result Result
}

func (r *ResultBody) ResultCode() Result          { return r.Result }
func (r *ResultBody) MarshalPayload(e *Encoder)   { e.Result(r.Result) }
func (r *ResultBody) UnmarshalPayload(d *Decoder) { r.Result = d.Result() }
