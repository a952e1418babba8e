package utils

import (
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// IDAttribute is the partition key attribute shared by every table.
const IDAttribute = "id"

// IDKey builds the primary key map for a document id
func IDKey(id string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		IDAttribute: &types.AttributeValueMemberS{Value: id},
	}
}
