package main

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-lambda-go/events"
)

type call struct {
	op       string
	index    string
	objectID string
	object   map[string]interface{}
}

type fakeWriter struct {
	calls []call
	err   error
}

func (f *fakeWriter) SaveObject(ctx context.Context, indexName string, object map[string]interface{}) error {
	id, _ := object["objectID"].(string)
	f.calls = append(f.calls, call{op: "save", index: indexName, objectID: id, object: object})
	return f.err
}

func (f *fakeWriter) DeleteObject(ctx context.Context, indexName string, objectID string) error {
	f.calls = append(f.calls, call{op: "delete", index: indexName, objectID: objectID})
	return f.err
}

func keys(id string) map[string]events.DynamoDBAttributeValue {
	return map[string]events.DynamoDBAttributeValue{
		"pk": events.NewStringAttribute(id),
		"sk": events.NewStringAttribute("books"),
	}
}

func insert(id, title string) events.DynamoDBEventRecord {
	image := keys(id)
	image["object"] = events.NewMapAttribute(map[string]events.DynamoDBAttributeValue{
		"title": events.NewStringAttribute(title),
	})
	return events.DynamoDBEventRecord{
		EventName: "INSERT",
		Change:    events.DynamoDBStreamRecord{Keys: keys(id), NewImage: image},
	}
}

func TestHandleDynamoDBEvent(t *testing.T) {
	writer := &fakeWriter{}
	h := NewHandler("catalog", writer)

	event := events.DynamoDBEvent{Records: []events.DynamoDBEventRecord{
		insert("b1", "Things Fall Apart"),
		{EventName: "REMOVE", Change: events.DynamoDBStreamRecord{Keys: keys("b2")}},
		{EventName: "MODIFY", Change: events.DynamoDBStreamRecord{Keys: keys("b3"), NewImage: keys("b3")}},
		{EventName: "INSERT", Change: events.DynamoDBStreamRecord{NewImage: map[string]events.DynamoDBAttributeValue{
			"sk": events.NewStringAttribute("books"),
		}}},
	}}

	if err := h.HandleDynamoDBEvent(context.Background(), event); err != nil {
		t.Fatalf("HandleDynamoDBEvent failed: %v", err)
	}

	if len(writer.calls) != 2 {
		t.Fatalf("Expected 2 writes, got %d: %+v", len(writer.calls), writer.calls)
	}

	save := writer.calls[0]
	if save.op != "save" || save.objectID != "b1" || save.index != "books" {
		t.Errorf("Unexpected save %+v", save)
	}
	if save.object["title"] != "Things Fall Apart" {
		t.Errorf("Expected title to be synced, got %v", save.object["title"])
	}

	del := writer.calls[1]
	if del.op != "delete" || del.objectID != "b2" {
		t.Errorf("Unexpected delete %+v", del)
	}
}

func TestHandleDynamoDBEventWriteError(t *testing.T) {
	writer := &fakeWriter{err: errors.New("algolia down")}
	h := NewHandler("catalog", writer)

	event := events.DynamoDBEvent{Records: []events.DynamoDBEventRecord{insert("b1", "Fairy tales")}}
	if err := h.HandleDynamoDBEvent(context.Background(), event); err == nil {
		t.Error("Expected error when the write fails, got nil")
	}
}
