// Package ddb decodes DynamoDB stream records that carry catalog documents.
package ddb

import (
	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/cockroachdb/errors"
)

// OperationType is the kind of change a stream record describes.
type OperationType string

const (
	OperationTypeInsert OperationType = "INSERT"
	OperationTypeModify OperationType = "MODIFY"
	OperationTypeRemove OperationType = "REMOVE"
)

// Record is one catalog document as stored in the table: the partition key
// is the document ID, the sort key names the search index it belongs to.
type Record struct {
	ID        string         `dynamodbav:"pk"`
	IndexName string         `dynamodbav:"sk"`
	Object    map[string]any `dynamodbav:"object"`
}

// Change is a decoded stream record.
type Change struct {
	Operation OperationType
	// Record is built from the new image for inserts and modifies and from
	// the keys for removals, in which case Object is nil.
	Record Record
}

// DecodeRecord decodes a stream record. Records without an image to decode
// return an error; callers usually log and skip them.
func DecodeRecord(r events.DynamoDBEventRecord) (Change, error) {
	op := OperationType(r.EventName)

	var image map[string]events.DynamoDBAttributeValue
	switch op {
	case OperationTypeInsert, OperationTypeModify:
		image = r.Change.NewImage
	case OperationTypeRemove:
		image = r.Change.Keys
	default:
		return Change{}, errors.Newf("unsupported event type %q", r.EventName)
	}
	if len(image) == 0 {
		return Change{}, errors.Newf("%s record has no image", op)
	}

	converted, err := AttributeValueMap(image)
	if err != nil {
		return Change{}, err
	}

	record, err := UnmarshalRecord(converted)
	if err != nil {
		return Change{}, err
	}
	return Change{Operation: op, Record: record}, nil
}

// UnmarshalRecord converts a DynamoDB item into a Record.
func UnmarshalRecord(item map[string]types.AttributeValue) (Record, error) {
	var record Record
	if err := attributevalue.UnmarshalMap(item, &record); err != nil {
		return Record{}, errors.Wrap(err, "failed to unmarshal record")
	}
	return record, nil
}

// MarshalRecord converts a Record into a DynamoDB item.
func MarshalRecord(record Record) (map[string]types.AttributeValue, error) {
	item, err := attributevalue.MarshalMap(record)
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal record")
	}
	return item, nil
}

// AttributeValueMap converts stream attribute values to their SDK form.
func AttributeValueMap(m map[string]events.DynamoDBAttributeValue) (map[string]types.AttributeValue, error) {
	out := make(map[string]types.AttributeValue, len(m))
	for k, v := range m {
		av, err := AttributeValue(v)
		if err != nil {
			return nil, errors.Wrapf(err, "attribute %q", k)
		}
		out[k] = av
	}
	return out, nil
}

// AttributeValue converts one stream attribute value to its SDK form.
func AttributeValue(v events.DynamoDBAttributeValue) (types.AttributeValue, error) {
	switch v.DataType() {
	case events.DataTypeString:
		return &types.AttributeValueMemberS{Value: v.String()}, nil
	case events.DataTypeNumber:
		return &types.AttributeValueMemberN{Value: v.Number()}, nil
	case events.DataTypeBoolean:
		return &types.AttributeValueMemberBOOL{Value: v.Boolean()}, nil
	case events.DataTypeNull:
		return &types.AttributeValueMemberNULL{Value: true}, nil
	case events.DataTypeBinary:
		return &types.AttributeValueMemberB{Value: v.Binary()}, nil
	case events.DataTypeStringSet:
		return &types.AttributeValueMemberSS{Value: v.StringSet()}, nil
	case events.DataTypeNumberSet:
		return &types.AttributeValueMemberNS{Value: v.NumberSet()}, nil
	case events.DataTypeBinarySet:
		return &types.AttributeValueMemberBS{Value: v.BinarySet()}, nil
	case events.DataTypeMap:
		m, err := AttributeValueMap(v.Map())
		if err != nil {
			return nil, err
		}
		return &types.AttributeValueMemberM{Value: m}, nil
	case events.DataTypeList:
		list := v.List()
		out := make([]types.AttributeValue, len(list))
		for i, elem := range list {
			av, err := AttributeValue(elem)
			if err != nil {
				return nil, errors.Wrapf(err, "element %d", i)
			}
			out[i] = av
		}
		return &types.AttributeValueMemberL{Value: out}, nil
	default:
		return nil, errors.Newf("unsupported attribute type %v", v.DataType())
	}
}
