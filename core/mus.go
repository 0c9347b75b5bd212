package core

import (
	"time"

	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/raw"
	"github.com/mus-format/mus-go/varint"
)

// MUS serializers for the stored entities. Written by hand rather than
// generated so the optional Embedding field round-trips with an explicit
// presence flag (absent stays nil instead of becoming an empty slice).

var (
	// DocumentMUS serializes Document values.
	DocumentMUS = documentMUS{}

	// TopicMUS serializes Topic values.
	TopicMUS = topicMUS{}

	// RelationshipMUS serializes Relationship values.
	RelationshipMUS = relationshipMUS{}

	stringSliceMUS  = ord.NewSliceSer[string](ord.String)
	float32SliceMUS = ord.NewSliceSer[float32](raw.Float32)
)

// Timestamps are stored as Unix microseconds. The zero time is stored as 0
// so it survives a round-trip as the zero time.

func marshalTime(t time.Time, bs []byte) (n int) {
	var micros int64
	if !t.IsZero() {
		micros = t.UnixMicro()
	}
	return varint.Int64.Marshal(micros, bs)
}

func unmarshalTime(bs []byte) (t time.Time, n int, err error) {
	micros, n, err := varint.Int64.Unmarshal(bs)
	if err != nil || micros == 0 {
		return
	}
	t = time.UnixMicro(micros).UTC()
	return
}

func sizeTime(t time.Time) (size int) {
	var micros int64
	if !t.IsZero() {
		micros = t.UnixMicro()
	}
	return varint.Int64.Size(micros)
}

type documentMUS struct{}

func (s documentMUS) Marshal(v Document, bs []byte) (n int) {
	n = ord.String.Marshal(v.Key, bs)
	n += ord.String.Marshal(v.Title, bs[n:])
	n += ord.String.Marshal(v.Content, bs[n:])
	n += ord.String.Marshal(v.Summary, bs[n:])
	n += stringSliceMUS.Marshal(v.Tags, bs[n:])
	n += raw.Float64.Marshal(v.Confidence, bs[n:])
	n += ord.String.Marshal(v.Status, bs[n:])
	n += ord.Bool.Marshal(v.Embedding != nil, bs[n:])
	if v.Embedding != nil {
		n += float32SliceMUS.Marshal(v.Embedding, bs[n:])
	}
	n += ord.String.Marshal(v.Meta.Source, bs[n:])
	n += ord.String.Marshal(v.Meta.Creator, bs[n:])
	n += marshalTime(v.Meta.Created, bs[n:])
	n += marshalTime(v.Meta.Updated, bs[n:])
	n += varint.Int.Marshal(v.Meta.Version, bs[n:])
	return
}

func (s documentMUS) Unmarshal(bs []byte) (v Document, n int, err error) {
	var n1 int
	v.Key, n, err = ord.String.Unmarshal(bs)
	if err != nil {
		return
	}
	v.Title, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.Content, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.Summary, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.Tags, n1, err = stringSliceMUS.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.Confidence, n1, err = raw.Float64.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.Status, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	var hasEmbedding bool
	hasEmbedding, n1, err = ord.Bool.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	if hasEmbedding {
		v.Embedding, n1, err = float32SliceMUS.Unmarshal(bs[n:])
		n += n1
		if err != nil {
			return
		}
	}
	v.Meta.Source, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.Meta.Creator, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.Meta.Created, n1, err = unmarshalTime(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.Meta.Updated, n1, err = unmarshalTime(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.Meta.Version, n1, err = varint.Int.Unmarshal(bs[n:])
	n += n1
	return
}

func (s documentMUS) Size(v Document) (size int) {
	size = ord.String.Size(v.Key)
	size += ord.String.Size(v.Title)
	size += ord.String.Size(v.Content)
	size += ord.String.Size(v.Summary)
	size += stringSliceMUS.Size(v.Tags)
	size += raw.Float64.Size(v.Confidence)
	size += ord.String.Size(v.Status)
	size += ord.Bool.Size(v.Embedding != nil)
	if v.Embedding != nil {
		size += float32SliceMUS.Size(v.Embedding)
	}
	size += ord.String.Size(v.Meta.Source)
	size += ord.String.Size(v.Meta.Creator)
	size += sizeTime(v.Meta.Created)
	size += sizeTime(v.Meta.Updated)
	size += varint.Int.Size(v.Meta.Version)
	return
}

type topicMUS struct{}

func (s topicMUS) Marshal(v Topic, bs []byte) (n int) {
	n = ord.String.Marshal(v.Key, bs)
	n += ord.String.Marshal(v.Name, bs[n:])
	n += ord.String.Marshal(v.Description, bs[n:])
	n += ord.String.Marshal(v.ParentTopic, bs[n:])
	n += ord.String.Marshal(v.Creator, bs[n:])
	n += varint.Int.Marshal(v.Importance, bs[n:])
	n += marshalTime(v.Created, bs[n:])
	return
}

func (s topicMUS) Unmarshal(bs []byte) (v Topic, n int, err error) {
	var n1 int
	v.Key, n, err = ord.String.Unmarshal(bs)
	if err != nil {
		return
	}
	v.Name, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.Description, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.ParentTopic, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.Creator, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.Importance, n1, err = varint.Int.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.Created, n1, err = unmarshalTime(bs[n:])
	n += n1
	return
}

func (s topicMUS) Size(v Topic) (size int) {
	size = ord.String.Size(v.Key)
	size += ord.String.Size(v.Name)
	size += ord.String.Size(v.Description)
	size += ord.String.Size(v.ParentTopic)
	size += ord.String.Size(v.Creator)
	size += varint.Int.Size(v.Importance)
	size += sizeTime(v.Created)
	return
}

type relationshipMUS struct{}

func (s relationshipMUS) Marshal(v Relationship, bs []byte) (n int) {
	n = ord.String.Marshal(v.Key, bs)
	n += ord.String.Marshal(v.From, bs[n:])
	n += ord.String.Marshal(v.To, bs[n:])
	n += ord.String.Marshal(v.Type, bs[n:])
	n += raw.Float64.Marshal(v.Strength, bs[n:])
	n += ord.Bool.Marshal(v.Bidirectional, bs[n:])
	n += ord.String.Marshal(v.Creator, bs[n:])
	n += marshalTime(v.Created, bs[n:])
	return
}

func (s relationshipMUS) Unmarshal(bs []byte) (v Relationship, n int, err error) {
	var n1 int
	v.Key, n, err = ord.String.Unmarshal(bs)
	if err != nil {
		return
	}
	v.From, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.To, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.Type, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.Strength, n1, err = raw.Float64.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.Bidirectional, n1, err = ord.Bool.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.Creator, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.Created, n1, err = unmarshalTime(bs[n:])
	n += n1
	return
}

func (s relationshipMUS) Size(v Relationship) (size int) {
	size = ord.String.Size(v.Key)
	size += ord.String.Size(v.From)
	size += ord.String.Size(v.To)
	size += ord.String.Size(v.Type)
	size += raw.Float64.Size(v.Strength)
	size += ord.Bool.Size(v.Bidirectional)
	size += ord.String.Size(v.Creator)
	size += sizeTime(v.Created)
	return
}
