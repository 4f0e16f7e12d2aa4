package catalogsync

import (
	"strings"

	"evcharge/backend/services/stations-service/internal/models"
)

var connectorLabels = map[string]string{
	"01": "DC차데모",
	"02": "AC완속",
	"03": "DC차데모+AC3상",
	"04": "DC콤보",
	"05": "DC차데모+DC콤보",
	"06": "DC차데모+AC3상+DC콤보",
	"07": "AC3상",
	"08": "DC콤보(완속)",
	"09": "NACS",
	"10": "DC콤보+NACS",
}

var powerByChargerType = map[string]string{
	"01": models.PowerFast,
	"02": models.PowerFast,
	"04": models.PowerFast,
	"05": models.PowerFast,
	"06": models.PowerFast,
	"09": models.PowerFast,
	"10": models.PowerFast,
	"03": models.PowerSlow,
	"07": models.PowerSlow,
	"08": models.PowerSlow,
}

// NormalizeStatus maps provider status codes: 2 available, 3 in use, 5 inspecting, anything else fault.
func NormalizeStatus(code string) string {
	switch strings.TrimSpace(code) {
	case "2":
		return models.ChargerAvailable
	case "3":
		return models.ChargerInUse
	case "5":
		return models.ChargerInspecting
	default:
		return models.ChargerFault
	}
}

// ClassifyPower reads the free-text power type first, then falls back to the charger type code.
func ClassifyPower(powerType, chargerType string) string {
	lower := strings.ToLower(powerType)
	switch {
	case strings.Contains(lower, "급속"), strings.Contains(lower, "fast"):
		return models.PowerFast
	case strings.Contains(lower, "완속"), strings.Contains(lower, "slow"):
		return models.PowerSlow
	}
	if class, ok := powerByChargerType[typeCode(chargerType)]; ok {
		return class
	}
	return models.PowerUnknown
}

// ConnectorLabel names the connector combination of a charger type code.
func ConnectorLabel(chargerType string) string {
	if label, ok := connectorLabels[typeCode(chargerType)]; ok {
		return label
	}
	return models.ConnectorUnknown
}

// typeCode restores the leading zero lost when the feed sends a charger type as a number.
func typeCode(raw string) string {
	code := strings.TrimSpace(raw)
	if len(code) == 1 && code[0] >= '0' && code[0] <= '9' {
		return "0" + code
	}
	return code
}

// ChargerID is the catalog key of a provider charger.
func ChargerID(stationID, providerChargerID string) string {
	return stationID + "_" + providerChargerID
}
