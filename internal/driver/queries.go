package driver

var indexQueries = []string{
	"CREATE INDEX ON :Document(id);",
	"CREATE INDEX ON :Document(category);",
}

const (
	// The edge always points from the lower id to the higher one, so a pair
	// owns exactly one KB_RELATION edge whichever document triggered the write.
	UpsertRelationQuery = `
		MERGE (low:Document {id: $low_id})
		MERGE (high:Document {id: $high_id})
		MERGE (low)-[r:KB_RELATION]->(high)
		ON CREATE SET r.id = $id,
			r.created_at = $created_at
		SET r.source_id = $source_id,
			r.target_id = $target_id,
			r.relation_type = $relation_type,
			r.confidence = $confidence,
			r.similarity_score = $similarity_score,
			r.updated_at = $updated_at
		RETURN r.id AS id
	`

	GetRelationQuery = `
		MATCH (:Document {id: $low_id})-[r:KB_RELATION]->(:Document {id: $high_id})
		RETURN r.id AS id, r.source_id AS source_id, r.target_id AS target_id,
			r.relation_type AS relation_type, r.confidence AS confidence,
			r.similarity_score AS similarity_score,
			r.created_at AS created_at, r.updated_at AS updated_at
	`

	ListRelationsQuery = `
		MATCH (d:Document {id: $id})-[r:KB_RELATION]-(:Document)
		RETURN r.id AS id, r.source_id AS source_id, r.target_id AS target_id,
			r.relation_type AS relation_type, r.confidence AS confidence,
			r.similarity_score AS similarity_score,
			r.created_at AS created_at, r.updated_at AS updated_at
		ORDER BY r.similarity_score DESC
	`

	DeleteDocumentQuery = `
		MATCH (d:Document {id: $id})
		DETACH DELETE d
	`
)
