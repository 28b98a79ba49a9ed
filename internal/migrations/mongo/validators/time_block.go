package validators

import "go.mongodb.org/mongo-driver/bson"

var TimeBlockValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"start_at",
			"end_at",
			"duration_minutes",
			"capacity",
			"status",
			"lock_version",
			"created_at",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"_id": bson.M{
				"bsonType": "objectId",
			},

			"start_at": bson.M{
				"bsonType": "date",
			},

			"end_at": bson.M{
				"bsonType": "date",
			},

			"duration_minutes": bson.M{
				"bsonType": []string{"int", "long"},
				"minimum":  5,
				"maximum":  240,
			},

			"capacity": bson.M{
				"bsonType": []string{"int", "long"},
				"minimum":  1,
				"maximum":  200,
			},

			"status": bson.M{
				"bsonType": "string",
				"enum": []string{
					"ACTIVE",
					"INACTIVE",
				},
			},

			"lock_version": bson.M{
				"bsonType": []string{"int", "long"},
				"minimum":  0,
			},

			"created_at": bson.M{
				"bsonType": "date",
			},
		},
	},
}
