package middleware

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type addToCartRequest struct {
	ProductID string `json:"productId" validate:"required,objectid"`
	Quantity  int    `json:"quantity" validate:"omitempty,gte=1"`
}

func decode(body interface{}, v interface{}) error {
	raw, _ := json.Marshal(body)
	req := httptest.NewRequest("POST", "/test", bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	return DecodeAndValidate(req, v)
}

func TestProperty_ObjectIDTagAcceptsOnlyHexIDs(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("only 24-char hex ids pass the objectid tag", prop.ForAll(
		func(useValid bool, junk string) bool {
			id := junk
			if useValid {
				id = primitive.NewObjectID().Hex()
			}

			var req addToCartRequest
			err := decode(map[string]interface{}{"productId": id, "quantity": 1}, &req)
			return (err == nil) == primitive.IsValidObjectID(id)
		},
		gen.Bool(),
		gen.AlphaString(),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestValidationErrorsUseJSONFieldNames(t *testing.T) {
	var req addToCartRequest
	err := decode(map[string]interface{}{"quantity": 0}, &req)
	if err == nil {
		t.Fatal("expected a validation error")
	}

	formatted := FormatValidationErrors(err)
	if len(formatted) != 1 || formatted[0].Field != "productId" || formatted[0].Message != "This field is required" {
		t.Errorf("unexpected formatted errors: %+v", formatted)
	}
}

func TestDecodeAndValidateMalformedBody(t *testing.T) {
	req := httptest.NewRequest("POST", "/test", bytes.NewReader([]byte("{not json")))

	var v addToCartRequest
	if err := DecodeAndValidate(req, &v); !errors.Is(err, ErrMalformedBody) {
		t.Errorf("expected ErrMalformedBody, got %v", err)
	}

	w := httptest.NewRecorder()
	RespondWithDecodeError(w, ErrMalformedBody)
	if w.Code != 400 {
		t.Errorf("expected 400, got %d", w.Code)
	}
}
