// Package catalog holds the fixed allow-list tables workflows are checked against.
// Tables are built once and never mutated; every accessor is safe for concurrent use.
package catalog

import (
	"cmp"
	"maps"
	"slices"

	"github.com/dukex/wflguard/pkg/models"
)

// Rule operators are numbered 0..12.
const (
	OperatorMin = 0
	OperatorMax = 12
)

var notificationTypes = map[string]struct{}{
	"SERVICE_STOP":                   {},
	"SERVICE_MISSED":                 {},
	"USER_LOGGED_IN":                 {},
	"USER_LOGGED_OUT":                {},
	"LOW_MEMORY":                     {},
	"HIGH_CPU_USAGE":                 {},
	"HIGH_PING_TIME":                 {},
	"PING_ERROR":                     {},
	"LOW_HDD_FREE_SPACE":             {},
	"COMPUTER_OFFLINE":               {},
	"COMPUTER_BACK_ONLINE":           {},
	"PORT_NOT_AVAILABLE":             {},
	"EVENT_LOG_WATCH":                {},
	"REBOOT_REQUIRED":                {},
	"LOW_BATTERY":                    {},
	"WINDOWS_UPDATES_AVAILABLE":      {},
	"PROCESS_STARTED":                {},
	"PROCESS_STOPPED":                {},
	"PERFORMANCE_COUNTER":            {},
	"APPLICATIONS_ADDED":             {},
	"USB_DEVICE_INSERT":              {},
	"USB_DEVICE_REMOVE":              {},
	"IP_CHANGED":                     {},
	"USER_SUPPORT_REQUEST":           {},
	"WEB_SITE_ERROR":                 {},
	"SNMP_ALERT":                     {},
	"SECURITY_FIREWALL_DISABLED":     {},
	"SECURITY_ANTIVIRUS_DISABLED":    {},
	"HDD_SMART_FAILURE":              {},
	"ANTIVIRUS_DEFINITIONS_OUTDATED": {},
	"COMPUTER_REGISTERED":            {},
}

var actionTypes = map[models.ActionType]string{
	models.ActionStopService:        "Stop Service",
	models.ActionStartService:       "Start Service",
	models.ActionSendEmail:          "Send Email",
	models.ActionRestartService:     "Restart Service",
	models.ActionEndWorkflow:        "End Workflow",
	models.ActionCreatePSATicket:    "Create PSA Ticket",
	models.ActionUpdatePSATicket:    "Update PSA Ticket",
	models.ActionGetURL:             "Get URL",
	models.ActionLog:                "Log",
	models.ActionSendMessage:        "Send Message",
	models.ActionExecuteFile:        "Execute File",
	models.ActionCloseApplication:   "Close Application",
	models.ActionRebootDevice:       "Reboot Device",
	models.ActionExecuteShell:       "Execute Shell",
	models.ActionSetInRegistry:      "Set In Registry",
	models.ActionDeleteFromRegistry: "Delete From Registry",
	models.ActionUnzipFile:          "Unzip File",
	models.ActionDeleteFile:         "Delete File",
	models.ActionLogOffCurrentUser:  "Log Off Current User",
	models.ActionExecutePowershell:  "Execute Powershell",
	models.ActionGetDeviceValue:     "Get Device Value",
	models.ActionAPICall:            "API Call",
}

// Actions whose captured output becomes a Text variable.
var captureActions = map[models.ActionType]struct{}{
	models.ActionExecuteFile:       {},
	models.ActionExecuteShell:      {},
	models.ActionExecutePowershell: {},
}

var scopes = map[string]int{
	"All Windows Computers":    -13,
	"All Windows Servers":      -12,
	"All Windows Server 2012":  -8,
	"All Windows Server 2016":  -9,
	"All Windows Server 2019":  -10,
	"All Windows Server 2022":  -11,
	"All Windows Server 2025":  -16,
	"All Windows 10 Computers": -14,
	"All Windows 11 Computers": -15,
}

var ruleProperties = map[string]struct{}{
	models.PropertyOSType:   {},
	models.PropertyScope:    {},
	models.PropertyVariable: {},
}

// Near-miss property names rejected before the allow-list lookup.
var blacklistedProperties = map[string]struct{}{
	"organization": {},
	"site":         {},
	"agentGroup":   {},
	"system":       {},
	"SNMPVariable": {},
}

var osCodes = map[int]string{
	1: "Windows",
	2: "Linux",
	3: "macOS",
}

var deviceValueTypes = map[int]models.VariableType{
	0: models.VariableBoolean, 1: models.VariableBoolean, 2: models.VariableBoolean,
	3: models.VariableBoolean, 4: models.VariableBoolean, 5: models.VariableBoolean,
	7: models.VariableBoolean, 9: models.VariableBoolean, 16: models.VariableBoolean,
	11: models.VariableNumber,
	6:  models.VariableText, 10: models.VariableText, 12: models.VariableText,
	13: models.VariableText, 14: models.VariableText, 15: models.VariableText,
	8: models.VariableDateTime,
}

// CadenceShape is the exact frequencyInterval a cadence must carry, with its allowed subintervals.
type CadenceShape struct {
	Cadence        models.Cadence `json:"id"`
	UUID           int            `json:"uuid"`
	Label          string         `json:"text"`
	SubintervalMin int            `json:"subintervalMin"`
	SubintervalMax int            `json:"subintervalMax"`
	Subintervals   []int          `json:"subintervals,omitempty"` // explicit set, overrides the range
}

var cadences = map[models.Cadence]CadenceShape{
	models.CadenceDaily:   {Cadence: models.CadenceDaily, UUID: 1, Label: "Daily"},
	models.CadenceWeekly:  {Cadence: models.CadenceWeekly, UUID: 4, Label: "Weekly", SubintervalMin: 1, SubintervalMax: 127},
	models.CadenceMonthly: {Cadence: models.CadenceMonthly, UUID: 5, Label: "Monthly", Subintervals: []int{0, 128, 256}},
}

// AllowsSubinterval reports whether sub is valid for the cadence.
func (c CadenceShape) AllowsSubinterval(sub int) bool {
	if len(c.Subintervals) > 0 {
		return slices.Contains(c.Subintervals, sub)
	}

	return sub >= c.SubintervalMin && sub <= c.SubintervalMax
}

func IsNotificationType(name string) bool {
	_, ok := notificationTypes[name]

	return ok
}

func IsActionType(t models.ActionType) bool {
	_, ok := actionTypes[t]

	return ok
}

// ActionName returns the display name of an allowed action type, or "".
func ActionName(t models.ActionType) string {
	return actionTypes[t]
}

func IsCaptureAction(t models.ActionType) bool {
	_, ok := captureActions[t]

	return ok
}

// ScopeID returns the fixed id of a scope name.
func ScopeID(name string) (int, bool) {
	id, ok := scopes[name]

	return id, ok
}

func IsRuleProperty(name string) bool {
	_, ok := ruleProperties[name]

	return ok
}

func IsBlacklistedProperty(name string) bool {
	_, ok := blacklistedProperties[name]

	return ok
}

func IsOperator(op int) bool {
	return op >= OperatorMin && op <= OperatorMax
}

func IsOSCode(code int) bool {
	_, ok := osCodes[code]

	return ok
}

// DeviceValueType maps a Get Device Value "variableType" onto the produced variable type.
// Unknown or missing codes produce Text.
func DeviceValueType(code *int) models.VariableType {
	if code == nil {
		return models.VariableText
	}

	if t, ok := deviceValueTypes[*code]; ok {
		return t
	}

	return models.VariableText
}

// Cadence returns the required shape for a frequencyInterval id.
func Cadence(c models.Cadence) (CadenceShape, bool) {
	shape, ok := cadences[c]

	return shape, ok
}

// Tables is a read-only copy of every table, for display and the HTTP API.
type Tables struct {
	NotificationTypes     []string       `json:"notificationTypes"`
	ActionTypes           []ActionEntry  `json:"actionTypes"`
	CaptureActionTypes    []int          `json:"captureActionTypes"`
	Scopes                []ScopeEntry   `json:"scopes"`
	RuleProperties        []string       `json:"ruleProperties"`
	BlacklistedProperties []string       `json:"blacklistedProperties"`
	Operators             [2]int         `json:"operatorRange"`
	OSCodes               map[int]string `json:"osCodes"`
	DeviceValueTypes      map[int]string `json:"deviceValueTypes"`
	Cadences              []CadenceShape `json:"cadences"`
}

type ActionEntry struct {
	Type int    `json:"actionType"`
	Name string `json:"name"`
}

type ScopeEntry struct {
	Name string `json:"scopeName"`
	ID   int    `json:"scopeId"`
}

// Snapshot copies the tables into sorted slices.
func Snapshot() Tables {
	t := Tables{
		NotificationTypes:     slices.Sorted(maps.Keys(notificationTypes)),
		RuleProperties:        slices.Sorted(maps.Keys(ruleProperties)),
		BlacklistedProperties: slices.Sorted(maps.Keys(blacklistedProperties)),
		Operators:             [2]int{OperatorMin, OperatorMax},
		OSCodes:               maps.Clone(osCodes),
		DeviceValueTypes:      make(map[int]string, len(deviceValueTypes)),
	}

	for _, at := range slices.Sorted(maps.Keys(actionTypes)) {
		t.ActionTypes = append(t.ActionTypes, ActionEntry{Type: int(at), Name: actionTypes[at]})
	}

	for _, at := range slices.Sorted(maps.Keys(captureActions)) {
		t.CaptureActionTypes = append(t.CaptureActionTypes, int(at))
	}

	for name, id := range scopes {
		t.Scopes = append(t.Scopes, ScopeEntry{Name: name, ID: id})
	}

	slices.SortFunc(t.Scopes, func(a, b ScopeEntry) int { return cmp.Compare(a.Name, b.Name) })

	for code, vt := range deviceValueTypes {
		t.DeviceValueTypes[code] = vt.String()
	}

	for _, c := range slices.Sorted(maps.Keys(cadences)) {
		shape := cadences[c]
		shape.Subintervals = slices.Clone(shape.Subintervals)
		t.Cadences = append(t.Cadences, shape)
	}

	return t
}
