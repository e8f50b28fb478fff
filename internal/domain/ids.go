package domain

import "go.mongodb.org/mongo-driver/bson/primitive"

// ParseObjectID parses a hex document id, reporting malformed ids as invalid requests
func ParseObjectID(id, field string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, InvalidRequest("Invalid " + field)
	}
	return oid, nil
}
