// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package wrproute

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/twmb/franz-go/pkg/kgo"
	"github.com/xmidt-org/kafkadelivery"
	"github.com/xmidt-org/wrp-go/v5"
)

const (
	fieldRef      = "wrp."
	headerField   = "Header."
	metadataField = "Metadata."
)

// Headers maps Kafka record header keys to their values.  A value is either
// a literal or a reference to the WRP message:
//
//	"wrp.Source"             the Source field (any field in wrpFields)
//	"wrp.DeviceID"           the device id parsed from Source
//	"wrp.Header.X-Trace"     every value of the X-Trace HTTP header
//	"wrp.Metadata.tenant_id" the tenant_id metadata entry
//
// Empty references produce no header; multi-valued ones produce one header
// per value.
type Headers map[string][]string

func (h Headers) validate() error {
	for key, values := range h {
		if key == "" {
			return errors.Join(kafkadelivery.ErrValidation, fmt.Errorf("header key must not be empty"))
		}
		if len(values) == 0 {
			return errors.Join(kafkadelivery.ErrValidation,
				fmt.Errorf("header '%s' must have at least one value", key))
		}
		for _, v := range values {
			if !validReference(v) {
				return errors.Join(kafkadelivery.ErrValidation,
					fmt.Errorf("header '%s' references unknown field '%s'", key, v))
			}
		}
	}
	return nil
}

// build returns the record headers for msg, ordered by key.
func (h Headers) build(msg *wrp.Message) []kgo.RecordHeader {
	if len(h) == 0 {
		return nil
	}

	keys := make([]string, 0, len(h))
	for k := range h {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]kgo.RecordHeader, 0, len(h))
	for _, key := range keys {
		for _, value := range h[key] {
			field, ok := strings.CutPrefix(value, fieldRef)
			if !ok || field == "" {
				out = append(out, kgo.RecordHeader{Key: key, Value: []byte(value)})
				continue
			}
			for _, v := range fieldValues(msg, field) {
				if v != "" {
					out = append(out, kgo.RecordHeader{Key: key, Value: []byte(v)})
				}
			}
		}
	}
	return out
}


// wrpFields are the fields a header may reference.
var wrpFields = map[string]func(*wrp.Message) []string{
	"Type":                    func(m *wrp.Message) []string { return []string{m.Type.String()} },
	"Source":                  func(m *wrp.Message) []string { return []string{m.Source} },
	"DeviceID":                deviceID,
	"Destination":             func(m *wrp.Message) []string { return []string{m.Destination} },
	"TransactionUUID":         func(m *wrp.Message) []string { return []string{m.TransactionUUID} },
	"ContentType":             func(m *wrp.Message) []string { return []string{m.ContentType} },
	"Accept":                  func(m *wrp.Message) []string { return []string{m.Accept} },
	"Status":                  func(m *wrp.Message) []string { return optionalInt(m.Status) },
	"RequestDeliveryResponse": func(m *wrp.Message) []string { return optionalInt(m.RequestDeliveryResponse) },
	"Headers":                 func(m *wrp.Message) []string { return m.Headers },
	"Path":                    func(m *wrp.Message) []string { return []string{m.Path} },
	"ServiceName":             func(m *wrp.Message) []string { return []string{m.ServiceName} },
	"URL":                     func(m *wrp.Message) []string { return []string{m.URL} },
	"PartnerIDs":              func(m *wrp.Message) []string { return m.PartnerIDs },
	"SessionID":               func(m *wrp.Message) []string { return []string{m.SessionID} },
	"QualityOfService":        func(m *wrp.Message) []string { return []string{strconv.Itoa(int(m.QualityOfService))} },
}

func deviceID(m *wrp.Message) []string {
	id, err := wrp.ParseDeviceID(m.Source)
	if err != nil {
		return nil
	}
	return []string{id.ID()}
}

func optionalInt(v *int64) []string {
	if v == nil {
		return nil
	}
	return []string{strconv.FormatInt(*v, 10)}
}

// fieldValues resolves a reference with its "wrp." prefix removed.
func fieldValues(msg *wrp.Message, field string) []string {
	if msg == nil {
		return nil
	}

	if name, ok := strings.CutPrefix(field, headerField); ok {
		name = strings.TrimSpace(name)
		var out []string
		for _, h := range msg.Headers {
			k, v, found := strings.Cut(h, ":")
			if found && strings.EqualFold(strings.TrimSpace(k), name) {
				out = append(out, strings.TrimSpace(v))
			}
		}
		return out
	}

	if key, ok := strings.CutPrefix(field, metadataField); ok {
		if v := msg.Metadata[strings.TrimSpace(key)]; v != "" {
			return []string{v}
		}
		return nil
	}

	if get, ok := wrpFields[field]; ok {
		return get(msg)
	}
	return nil
}

func validReference(value string) bool {
	field, ok := strings.CutPrefix(value, fieldRef)
	if !ok || field == "" {
		return true
	}
	if strings.HasPrefix(field, headerField) || strings.HasPrefix(field, metadataField) {
		return true
	}
	_, ok = wrpFields[field]
	return ok
}
