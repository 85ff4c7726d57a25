package handler

import (
	"mime/multipart"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"docvault/internal/auth"
	"docvault/internal/http/middleware"
	"docvault/internal/model"
	"docvault/internal/service"
)

const dateLayout = "2006-01-02"

type addDocumentForm struct {
	Title       string `form:"titulo" validate:"required,max=255"`
	Description string `form:"descripcion" validate:"max=2000"`
	OwnerID     int64  `form:"usuarioId" validate:"required,gt=0"`
	TypeID      int64  `form:"tipoDocumentoId" validate:"required,gt=0"`
}

type listQuery struct {
	Title      string `query:"titulo"`
	OwnerEmail string `query:"usuarioCorreo"`
	TypeID     int64  `query:"tipoDocumentoId" validate:"omitempty,gt=0"`
	From       string `query:"fechaInicio" validate:"required_with=To"`
	To         string `query:"fechaFin" validate:"required_with=From"`
}

type downloadRequest struct {
	DocumentURL string `json:"documentUrl" validate:"required"`
}

type shareRequest struct {
	DocumentID  string `json:"documentId" validate:"required"`
	RecipientID int64  `json:"recipientUserId" validate:"required,gt=0"`
	Permissions string `json:"permissions" validate:"required,max=64"`
}

func principal(c *fiber.Ctx) (auth.Principal, error) {
	p, ok := middleware.PrincipalFrom(c)
	if !ok {
		return auth.Principal{}, auth.ErrUnauthorized
	}
	return p, nil
}

// formFile opens the uploaded "file" part.
func formFile(c *fiber.Ctx) (multipart.File, service.Upload, error) {
	fh, err := c.FormFile("file")
	if err != nil {
		return nil, service.Upload{}, fieldError("file", "is required")
	}
	f, err := fh.Open()
	if err != nil {
		return nil, service.Upload{}, fieldError("file", "cannot be opened")
	}
	return f, service.Upload{
		Body:        f,
		Filename:    fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Size:        fh.Size,
	}, nil
}

// AddDocument uploads a file and registers it as a new document.
//
//	@Summary	Add a document
//	@Tags		documents
//	@Accept		multipart/form-data
//	@Produce	json
//	@Param		titulo			formData	string	true	"Title"
//	@Param		descripcion		formData	string	false	"Description"
//	@Param		usuarioId		formData	int		true	"Owner user id"
//	@Param		tipoDocumentoId	formData	int		true	"Document type id"
//	@Param		file			formData	file	true	"Content"
//	@Success	201	{object}	map[string]any
//	@Failure	400	{object}	errorPayload
//	@Security	BearerAuth
//	@Router		/documents [post]
func AddDocument(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, err := principal(c)
		if err != nil {
			return respondError(c, err)
		}

		var form addDocumentForm
		if err := c.BodyParser(&form); err != nil {
			return fiber.ErrBadRequest
		}
		if err := validateStruct(form); err != nil {
			return respondError(c, err)
		}

		f, upload, err := formFile(c)
		if err != nil {
			return respondError(c, err)
		}
		defer f.Close()

		doc, err := svc.Add(c.UserContext(), p.UserID, model.NewDocument{
			Title:       form.Title,
			Description: form.Description,
			OwnerUserID: form.OwnerID,
			TypeID:      form.TypeID,
		}, upload)
		if err != nil {
			return respondError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{
			"message":  "Documento añadido correctamente",
			"document": doc,
		})
	}
}

// UpdateDocument uploads a new version of a document. Metadata fields left
// out of the form keep their stored value.
//
//	@Summary	Upload a new version of a document
//	@Tags		documents
//	@Accept		multipart/form-data
//	@Produce	json
//	@Param		documentId		path		string	true	"Document id"
//	@Param		titulo			formData	string	false	"Title"
//	@Param		descripcion		formData	string	false	"Description"
//	@Param		tipoDocumentoId	formData	int		false	"Document type id"
//	@Param		file			formData	file	true	"Content"
//	@Success	200	{object}	map[string]any
//	@Failure	404	{object}	errorPayload
//	@Security	BearerAuth
//	@Router		/documents/{documentId} [put]
func UpdateDocument(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, err := principal(c)
		if err != nil {
			return respondError(c, err)
		}

		form, err := c.MultipartForm()
		if err != nil {
			return respondError(c, fieldError("file", "is required"))
		}

		var meta service.MetadataUpdate
		if v, ok := formValue(form, "titulo"); ok {
			meta.Title = &v
		}
		if v, ok := formValue(form, "descripcion"); ok {
			meta.Description = &v
		}
		if v, ok := formValue(form, "tipoDocumentoId"); ok {
			id, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
			if err != nil || id <= 0 {
				return respondError(c, fieldError("tipoDocumentoId", "must be greater than 0"))
			}
			meta.TypeID = &id
		}

		f, upload, err := formFile(c)
		if err != nil {
			return respondError(c, err)
		}
		defer f.Close()

		doc, err := svc.Update(c.UserContext(), p.UserID, c.Params("documentId"), meta, upload)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(fiber.Map{
			"message":  "Documento actualizado correctamente",
			"document": doc,
		})
	}
}

func formValue(form *multipart.Form, key string) (string, bool) {
	vs, ok := form.Value[key]
	if !ok || len(vs) == 0 {
		return "", false
	}
	return vs[0], true
}

// DownloadDocument streams the blob at documentUrl as an attachment.
//
//	@Summary	Download a document or version
//	@Tags		documents
//	@Accept		json
//	@Produce	octet-stream
//	@Param		body	body	downloadRequest	true	"Content location"
//	@Success	200
//	@Failure	404	{object}	errorPayload
//	@Security	BearerAuth
//	@Router		/documents/descargar [post]
func DownloadDocument(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, err := principal(c)
		if err != nil {
			return respondError(c, err)
		}

		var req downloadRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.ErrBadRequest
		}
		if err := validateStruct(req); err != nil {
			return respondError(c, err)
		}

		blob, err := svc.Download(c.UserContext(), p.UserID, req.DocumentURL)
		if err != nil {
			return respondError(c, err)
		}

		c.Attachment(blob.Filename)
		c.Set(fiber.HeaderContentType, blob.ContentType)
		size := int(blob.Size)
		if blob.Size <= 0 {
			size = -1
		}
		return c.SendStream(blob.Body, size)
	}
}

// ListDocuments returns the documents matching the query filters. The date
// range applies only when both ends are given and covers whole days in loc.
//
//	@Summary	List documents
//	@Tags		documents
//	@Produce	json
//	@Param		titulo			query	string	false	"Title contains"
//	@Param		usuarioCorreo	query	string	false	"Owner email contains"
//	@Param		tipoDocumentoId	query	int		false	"Document type id"
//	@Param		fechaInicio		query	string	false	"From date (YYYY-MM-DD)"
//	@Param		fechaFin		query	string	false	"To date (YYYY-MM-DD)"
//	@Success	200	{object}	map[string]any
//	@Security	BearerAuth
//	@Router		/documents [get]
func ListDocuments(svc service.DocumentService, loc *time.Location) fiber.Handler {
	if loc == nil {
		loc = time.UTC
	}
	return func(c *fiber.Ctx) error {
		var q listQuery
		if err := c.QueryParser(&q); err != nil {
			return respondError(c, fieldError("tipoDocumentoId", "must be a number"))
		}
		if err := validateStruct(q); err != nil {
			return respondError(c, err)
		}

		filter := model.ListFilter{
			TitleContains:      strings.TrimSpace(q.Title),
			OwnerEmailContains: strings.TrimSpace(q.OwnerEmail),
		}
		if q.TypeID > 0 {
			filter.TypeID = &q.TypeID
		}
		if q.From != "" && q.To != "" {
			from, err := time.ParseInLocation(dateLayout, q.From, loc)
			if err != nil {
				return respondError(c, fieldError("fechaInicio", "must match "+dateLayout))
			}
			to, err := time.ParseInLocation(dateLayout, q.To, loc)
			if err != nil {
				return respondError(c, fieldError("fechaFin", "must match "+dateLayout))
			}
			filter.CreatedBetween = &model.DateRange{
				From: from,
				To:   to.Add(24*time.Hour - time.Nanosecond),
			}
		}

		items, err := svc.List(c.UserContext(), filter)
		if err != nil {
			return respondError(c, err)
		}
		if items == nil {
			items = []model.DocumentListItem{}
		}
		return c.JSON(fiber.Map{
			"message":   "Documentos obtenidos correctamente",
			"documents": items,
		})
	}
}

// GetDocument returns a document with its archived versions.
//
//	@Summary	Get a document
//	@Tags		documents
//	@Produce	json
//	@Param		documentId	path	string	true	"Document id"
//	@Success	200	{object}	map[string]any
//	@Failure	404	{object}	errorPayload
//	@Security	BearerAuth
//	@Router		/documents/byId/{documentId} [get]
func GetDocument(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		detail, err := svc.GetByID(c.UserContext(), c.Params("documentId"))
		if err != nil {
			return respondError(c, err)
		}
		if detail.Versions == nil {
			detail.Versions = []model.DocumentVersion{}
		}
		if detail.Shares == nil {
			detail.Shares = []model.Share{}
		}
		body := fiber.Map{
			"message":  "Documento obtenido correctamente",
			"document": detail.Document,
			"versions": detail.Versions,
			"shares":   detail.Shares,
		}
		if detail.DownloadURL != "" {
			body["download_url"] = detail.DownloadURL
		}
		return c.JSON(body)
	}
}

// DeleteDocument removes a document, its versions, shares and blobs.
//
//	@Summary	Delete a document
//	@Tags		documents
//	@Produce	json
//	@Param		documentId	path	string	true	"Document id"
//	@Success	200	{object}	map[string]any
//	@Failure	404	{object}	errorPayload
//	@Security	BearerAuth
//	@Router		/documents/{documentId} [delete]
func DeleteDocument(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, err := principal(c)
		if err != nil {
			return respondError(c, err)
		}
		if err := svc.Delete(c.UserContext(), p.UserID, c.Params("documentId")); err != nil {
			return respondError(c, err)
		}
		return c.JSON(fiber.Map{"message": "Documento eliminado correctamente"})
	}
}

// ShareDocument grants permissions on a document to another user.
//
//	@Summary	Share a document
//	@Tags		documents
//	@Accept		json
//	@Produce	json
//	@Param		body	body	shareRequest	true	"Share"
//	@Success	201	{object}	map[string]any
//	@Failure	404	{object}	errorPayload
//	@Security	BearerAuth
//	@Router		/documents/share [post]
func ShareDocument(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, err := principal(c)
		if err != nil {
			return respondError(c, err)
		}

		var req shareRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.ErrBadRequest
		}
		if err := validateStruct(req); err != nil {
			return respondError(c, err)
		}

		share, err := svc.Share(c.UserContext(), service.ShareRequest{
			DocumentID:  req.DocumentID,
			SenderID:    p.UserID,
			RecipientID: req.RecipientID,
			Permissions: req.Permissions,
		})
		if err != nil {
			return respondError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{
			"message": "Documento compartido correctamente",
			"share":   share,
		})
	}
}

// DeleteVersion removes an archived version and its blob.
//
//	@Summary	Delete a document version
//	@Tags		documents
//	@Produce	json
//	@Param		versionId	path	string	true	"Version id"
//	@Success	200	{object}	map[string]any
//	@Failure	404	{object}	errorPayload
//	@Security	BearerAuth
//	@Router		/documents/versions/{versionId} [delete]
func DeleteVersion(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, err := principal(c)
		if err != nil {
			return respondError(c, err)
		}
		if err := svc.DeleteVersion(c.UserContext(), p.UserID, c.Params("versionId")); err != nil {
			return respondError(c, err)
		}
		return c.JSON(fiber.Map{"message": "Versión eliminada correctamente"})
	}
}

// GetTypes lists the document type catalog.
//
//	@Summary	List document types
//	@Tags		documents
//	@Produce	json
//	@Success	200	{object}	map[string]any
//	@Security	BearerAuth
//	@Router		/documents/types [get]
func GetTypes(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		types, err := svc.GetTypes(c.UserContext())
		if err != nil {
			return respondError(c, err)
		}
		if types == nil {
			types = []model.DocumentType{}
		}
		return c.JSON(fiber.Map{
			"message": "Tipos de documento obtenidos correctamente",
			"types":   types,
		})
	}
}

// GetAuditLogs lists audit records, newest first, optionally for one document.
//
//	@Summary	List audit records
//	@Tags		audit
//	@Produce	json
//	@Param		documentId	query	string	false	"Document id"
//	@Success	200	{object}	map[string]any
//	@Security	BearerAuth
//	@Router		/documents/audit [get]
func GetAuditLogs(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var documentID *string
		if id := strings.TrimSpace(c.Query("documentId")); id != "" {
			documentID = &id
		}

		records, err := svc.GetAuditLogs(c.UserContext(), documentID)
		if err != nil {
			return respondError(c, err)
		}
		if records == nil {
			records = []model.AuditRecord{}
		}
		return c.JSON(fiber.Map{
			"message": "Registros de auditoría obtenidos correctamente",
			"records": records,
		})
	}
}
