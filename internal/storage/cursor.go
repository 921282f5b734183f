package storage

import (
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// Page cursors are the DynamoDB LastEvaluatedKey encoded as URL-safe
// base64 so clients can pass them back verbatim without caring what is
// inside. All table keys are string attributes.
type pageKey struct {
	PK string `json:"pk"`
	SK string `json:"sk"`
}

// encodeCursor turns a LastEvaluatedKey into an opaque cursor. A nil key
// encodes to the empty cursor, meaning the listing is done.
func encodeCursor(key map[string]types.AttributeValue) string {
	if key == nil {
		return ""
	}
	var pk pageKey
	if v, ok := key["PK"].(*types.AttributeValueMemberS); ok {
		pk.PK = v.Value
	}
	if v, ok := key["SK"].(*types.AttributeValueMemberS); ok {
		pk.SK = v.Value
	}
	if pk.PK == "" || pk.SK == "" {
		return ""
	}
	data, _ := json.Marshal(pk)
	return base64.RawURLEncoding.EncodeToString(data)
}

// decodeCursor turns a client-supplied cursor back into an
// ExclusiveStartKey. The empty cursor decodes to nil, starting from the
// beginning.
func decodeCursor(cursor string) (map[string]types.AttributeValue, error) {
	if cursor == "" {
		return nil, nil
	}
	raw, err := base64.RawURLEncoding.DecodeString(cursor)
	if err != nil {
		return nil, fmt.Errorf("invalid cursor: %w", err)
	}
	var pk pageKey
	if err := json.Unmarshal(raw, &pk); err != nil {
		return nil, fmt.Errorf("invalid cursor: %w", err)
	}
	if pk.PK == "" || pk.SK == "" {
		return nil, fmt.Errorf("invalid cursor")
	}
	return itemKey(pk.PK, pk.SK), nil
}
