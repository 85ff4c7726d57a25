package memory

import "github.com/hashicorp/go-memdb"

var (
	tblUsers         = "users"
	tblTypes         = "document_types"
	tblDocuments     = "documents"
	tblVersions      = "document_versions"
	tblShares        = "document_shares"
	tblNotifications = "notifications"
	tblAudit         = "audit_records"
)

var schema = &memdb.DBSchema{
	Tables: map[string]*memdb.TableSchema{
		tblUsers: {
			Name: tblUsers,
			Indexes: map[string]*memdb.IndexSchema{
				"id": {
					Name:    "id",
					Unique:  true,
					Indexer: &memdb.IntFieldIndex{Field: "ID"},
				},
				"email": {
					Name:    "email",
					Unique:  true,
					Indexer: &memdb.StringFieldIndex{Field: "Email", Lowercase: true},
				},
			},
		},
		tblTypes: {
			Name: tblTypes,
			Indexes: map[string]*memdb.IndexSchema{
				"id": {
					Name:    "id",
					Unique:  true,
					Indexer: &memdb.IntFieldIndex{Field: "ID"},
				},
			},
		},
		tblDocuments: {
			Name: tblDocuments,
			Indexes: map[string]*memdb.IndexSchema{
				"id": {
					Name:    "id",
					Unique:  true,
					Indexer: &memdb.StringFieldIndex{Field: "ID"},
				},
				"content_location": {
					Name:    "content_location",
					Indexer: &memdb.StringFieldIndex{Field: "ContentLocation"},
				},
			},
		},
		tblVersions: {
			Name: tblVersions,
			Indexes: map[string]*memdb.IndexSchema{
				"id": {
					Name:    "id",
					Unique:  true,
					Indexer: &memdb.StringFieldIndex{Field: "ID"},
				},
				"document_id": {
					Name:    "document_id",
					Indexer: &memdb.StringFieldIndex{Field: "DocumentID"},
				},
			},
		},
		tblShares: {
			Name: tblShares,
			Indexes: map[string]*memdb.IndexSchema{
				"id": {
					Name:    "id",
					Unique:  true,
					Indexer: &memdb.StringFieldIndex{Field: "ID"},
				},
				"document_id": {
					Name:    "document_id",
					Indexer: &memdb.StringFieldIndex{Field: "DocumentID"},
				},
			},
		},
		tblNotifications: {
			Name: tblNotifications,
			Indexes: map[string]*memdb.IndexSchema{
				"id": {
					Name:    "id",
					Unique:  true,
					Indexer: &memdb.StringFieldIndex{Field: "ID"},
				},
				"user_id": {
					Name:    "user_id",
					Indexer: &memdb.IntFieldIndex{Field: "UserID"},
				},
				"document_id": {
					Name:    "document_id",
					Indexer: &memdb.StringFieldIndex{Field: "DocumentID"},
				},
			},
		},
		tblAudit: {
			Name: tblAudit,
			Indexes: map[string]*memdb.IndexSchema{
				"id": {
					Name:    "id",
					Unique:  true,
					Indexer: &memdb.StringFieldIndex{Field: "ID"},
				},
				"document_id": {
					Name:         "document_id",
					AllowMissing: true,
					Indexer:      &memdb.StringFieldIndex{Field: "DocumentKey"},
				},
			},
		},
	},
}
