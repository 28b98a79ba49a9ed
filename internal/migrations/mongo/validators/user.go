package validators

import "go.mongodb.org/mongo-driver/bson"

var UserValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"email",
			"name",
			"role",
			"created_at",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"_id": bson.M{
				"bsonType": "objectId",
			},

			"email": bson.M{
				"bsonType":  "string",
				"minLength": 3,
				"maxLength": 254,
			},

			"name": bson.M{
				"bsonType":  "string",
				"minLength": 2,
				"maxLength": 120,
			},

			// admins may sign in without ever linking an intern ID
			"intern_id": bson.M{
				"bsonType": "string",
				"pattern":  "^[A-Z0-9][A-Z0-9_-]{1,31}$",
			},

			"role": bson.M{
				"bsonType": "string",
				"enum": []string{
					"ADMIN",
					"INTERN",
				},
			},

			"created_at": bson.M{
				"bsonType": "date",
			},
		},
	},
}
