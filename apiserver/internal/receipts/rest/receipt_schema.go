package rest

// nolint: lll
var receiptSchemaBytes = []byte(`
{
	"$schema": "http://json-schema.org/draft-07/schema#",
	"$id": "github.com/kvittoapp/kvitto/receipt.schema.json",

	"definitions": {

		"currency": {
			"type": "string",
			"pattern": "^[A-Z]{3}$"
		},

		"shortString": {
			"type": "string",
			"minLength": 1,
			"maxLength": 250
		}

	},

	"title": "Receipt",
	"type": "object",
	"required": ["merchant", "totalAmount", "currency"],
	"additionalProperties": false,
	"properties": {
		"apiVersion": {
			"type": "string",
			"description": "The Kvitto API version"
		},
		"kind": {
			"type": "string",
			"description": "The type of object represented by the document",
			"enum": ["Receipt"]
		},
		"metadata": {
			"type": "object",
			"description": "Receipt metadata; all fields are system-populated",
			"additionalProperties": true
		},
		"merchant": {
			"allOf": [{ "$ref": "#/definitions/shortString" }],
			"description": "The business the purchase was made from"
		},
		"totalAmount": {
			"type": "integer",
			"minimum": 0,
			"description": "The receipt total in minor currency units"
		},
		"currency": {
			"allOf": [{ "$ref": "#/definitions/currency" }],
			"description": "ISO 4217 currency code for totalAmount"
		},
		"purchasedAt": {
			"type": "string",
			"format": "date-time",
			"description": "When the purchase was made"
		},
		"category": {
			"allOf": [{ "$ref": "#/definitions/shortString" }],
			"description": "Optional purchase classification"
		},
		"notes": {
			"type": "string",
			"maxLength": 2000,
			"description": "Optional free-form notes"
		}
	}
}
`)
