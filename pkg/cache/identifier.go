package cache

import (
	"bytes"
	"crypto/md5"
	"encoding/json"
	"fmt"
	"strings"
)

// Namespace prefixes every key written by this service.
const Namespace = "stock_"

// Identifier derives a cache key from the content of params, namespaced by prefix.
// encoding/json sorts map keys, so two maps with the same entries always hash equally.
func Identifier(params interface{}, prefix string) string {
	id := prefix
	if id == "" || !strings.HasPrefix(id, Namespace) {
		id = Namespace + id
	}
	if !strings.HasSuffix(id, "_") {
		id += "_"
	}

	data, err := json.Marshal(params)
	if err != nil {
		data = []byte(fmt.Sprintf("%#v", params))
	}
	if isEmptyPayload(data) {
		return id
	}

	return fmt.Sprintf("%s%x", id, md5.Sum(data))
}

func isEmptyPayload(data []byte) bool {
	switch string(bytes.TrimSpace(data)) {
	case "", "null", "{}", "[]", `""`:
		return true
	}
	return false
}
