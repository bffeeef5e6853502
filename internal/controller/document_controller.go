package controller

import (
	"io"
	"mime/multipart"

	"github.com/gofiber/fiber/v2"

	"docchat-be/internal/pkg/serverutils"
	"docchat-be/internal/service"
)

type IDocumentController interface {
	RegisterRoutes(r fiber.Router)
	Upload(ctx *fiber.Ctx) error
	UploadMultiple(ctx *fiber.Ctx) error
	List(ctx *fiber.Ctx) error
	Show(ctx *fiber.Ctx) error
	Delete(ctx *fiber.Ctx) error
	Reindex(ctx *fiber.Ctx) error
	Stats(ctx *fiber.Ctx) error
}

type documentController struct {
	documentService service.IDocumentService
}

func NewDocumentController(documentService service.IDocumentService) IDocumentController {
	return &documentController{
		documentService: documentService,
	}
}

func (c *documentController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/documents/v1")
	h.Post("/upload", c.Upload)
	h.Post("/upload/multiple", c.UploadMultiple)
	h.Get("/stats", c.Stats)
	h.Get("", c.List)
	h.Get("/:id", c.Show)
	h.Delete("/:id", c.Delete)
	h.Post("/:id/reindex", c.Reindex)
}

func (c *documentController) Upload(ctx *fiber.Ctx) error {
	fileHeader, err := ctx.FormFile("file")
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(fiber.StatusBadRequest, "Missing file"))
	}

	content, err := readMultipartFile(fileHeader)
	if err != nil {
		return err
	}

	res, err := c.documentService.Upload(ctx.Context(), fileHeader.Filename, content)
	if err != nil {
		return err
	}

	return ctx.Status(fiber.StatusCreated).JSON(serverutils.SuccessResponse("Document uploaded", res))
}

func (c *documentController) UploadMultiple(ctx *fiber.Ctx) error {
	form, err := ctx.MultipartForm()
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(fiber.StatusBadRequest, "Invalid multipart form"))
	}

	fileHeaders := form.File["files"]
	files := make([]service.UploadFile, 0, len(fileHeaders))
	for _, fileHeader := range fileHeaders {
		content, err := readMultipartFile(fileHeader)
		if err != nil {
			return err
		}
		files = append(files, service.UploadFile{
			Filename: fileHeader.Filename,
			Content:  content,
		})
	}

	items, err := c.documentService.UploadMultiple(ctx.Context(), files)
	if err != nil {
		return err
	}

	return ctx.Status(fiber.StatusCreated).JSON(serverutils.SuccessResponse("Documents processed", items))
}

func (c *documentController) List(ctx *fiber.Ctx) error {
	docs := c.documentService.List(ctx.Context())
	return ctx.JSON(serverutils.SuccessResponse("Documents", docs))
}

func (c *documentController) Show(ctx *fiber.Ctx) error {
	res, err := c.documentService.Get(ctx.Context(), ctx.Params("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Document", res))
}

func (c *documentController) Delete(ctx *fiber.Ctx) error {
	if err := c.documentService.Delete(ctx.Context(), ctx.Params("id")); err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse[any]("Document deleted", nil))
}

func (c *documentController) Reindex(ctx *fiber.Ctx) error {
	if err := c.documentService.Reindex(ctx.Context(), ctx.Params("id")); err != nil {
		return err
	}
	return ctx.Status(fiber.StatusAccepted).JSON(serverutils.SuccessResponse[any]("Reindex queued", nil))
}

func (c *documentController) Stats(ctx *fiber.Ctx) error {
	res, err := c.documentService.Stats(ctx.Context())
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Index stats", res))
}

func readMultipartFile(fileHeader *multipart.FileHeader) ([]byte, error) {
	file, err := fileHeader.Open()
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return io.ReadAll(file)
}
