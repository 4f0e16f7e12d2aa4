package feed

import (
	"bytes"
	"encoding/json"
	"strings"
)

// Page is one page of the charger info feed. Unknown fields are ignored.
type Page struct {
	ResultMsg  string      `json:"resultMsg"`
	TotalCount json.Number `json:"totalCount"`
	PageNo     json.Number `json:"pageNo"`
	NumOfRows  json.Number `json:"numOfRows"`
	Items      ItemList    `json:"items"`
}

// IsEmpty reports whether the page carried no chargers, which ends pagination.
func (p *Page) IsEmpty() bool {
	return p == nil || len(p.Items.Item) == 0
}

// ItemList is the "items" envelope. The feed sends "" or null instead of an object when empty.
type ItemList struct {
	Item []Item `json:"item"`
}

func (l *ItemList) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) || trimmed[0] == '"' {
		l.Item = nil
		return nil
	}
	var raw struct {
		Item json.RawMessage `json:"item"`
	}
	if err := json.Unmarshal(trimmed, &raw); err != nil {
		return err
	}
	item := bytes.TrimSpace(raw.Item)
	switch {
	case len(item) == 0 || bytes.Equal(item, []byte("null")):
		l.Item = nil
	case item[0] == '{':
		var single Item
		if err := json.Unmarshal(item, &single); err != nil {
			return err
		}
		l.Item = []Item{single}
	default:
		return json.Unmarshal(item, &l.Item)
	}
	return nil
}

// Item is one charger row; station fields repeat for every charger of the station.
// Every field is a FlexString so one oddly typed value never fails the whole page.
type Item struct {
	StatID      FlexString `json:"statId"`
	StatNm      FlexString `json:"statNm"`
	Addr        FlexString `json:"addr"`
	Lat         FlexString `json:"lat"`
	Lng         FlexString `json:"lng"`
	ChgerID     FlexString `json:"chgerId"`
	ChgerNm     FlexString `json:"chgerNm"`
	ChgerType   FlexString `json:"chgerType"`
	Stat        FlexString `json:"stat"`
	StatUpdDt   FlexString `json:"statUpdDt"`
	UseTime     FlexString `json:"useTime"`
	BusiNm      FlexString `json:"busiNm"`
	BusiCall    FlexString `json:"busiCall"`
	ParkingFree FlexString `json:"parkingFree"`
	Note        FlexString `json:"note"`
	PowerType   FlexString `json:"powerType"`
}

// FlexString accepts a JSON string, number or bool. Objects and arrays decode to "".
type FlexString string

func (f *FlexString) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if bytes.Equal(trimmed, []byte("null")) {
		*f = ""
		return nil
	}
	if len(trimmed) > 0 && trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return err
		}
		*f = FlexString(strings.TrimSpace(s))
		return nil
	}
	switch {
	case len(trimmed) == 0:
		*f = ""
	case bytes.Equal(trimmed, []byte("true")), bytes.Equal(trimmed, []byte("false")):
		*f = FlexString(trimmed)
	case trimmed[0] == '{' || trimmed[0] == '[':
		*f = ""
	default:
		var n json.Number
		if err := json.Unmarshal(trimmed, &n); err != nil {
			return err
		}
		*f = FlexString(n.String())
	}
	return nil
}

func (f FlexString) String() string { return string(f) }
