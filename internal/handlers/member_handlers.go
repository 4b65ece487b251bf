package handlers

import (
	"errors"
	"net/http"

	"lounge_pos_backend/internal/services"
	"lounge_pos_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// maxWorkbookSize bounds the member load upload.
const maxWorkbookSize = 10 << 20

// MemberHandler holds the member service.
type MemberHandler struct {
	memberService services.MemberService
}

// NewMemberHandler creates a new MemberHandler.
func NewMemberHandler(ms services.MemberService) *MemberHandler {
	return &MemberHandler{memberService: ms}
}

func (h *MemberHandler) GetMembers(c *gin.Context) {
	members, err := h.memberService.GetMembers()
	if err != nil {
		utils.LogError(err, "GetMembers: Error from memberService.GetMembers")
		respondInternal(c, "Failed to fetch members.")
		return
	}
	c.JSON(http.StatusOK, members)
}

// GetMembersPage returns one page of members, optionally filtered by ?search=.
func (h *MemberHandler) GetMembersPage(c *gin.Context) {
	page, limit := pageQuery(c, 10)
	var search *string
	if term := c.Query("search"); term != "" {
		search = &term
	}
	result, err := h.memberService.GetMembersPage(page, limit, search)
	if err != nil {
		utils.LogError(err, "GetMembersPage: Error from memberService.GetMembersPage")
		respondInternal(c, "Failed to fetch members.")
		return
	}
	c.JSON(http.StatusOK, result)
}

// GetMemberDetail returns the member and a page of their sales.
func (h *MemberHandler) GetMemberDetail(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	page, limit := pageQuery(c, 10)
	detail, err := h.memberService.GetMemberDetail(id, page, limit)
	if err != nil {
		if errors.Is(err, services.ErrMemberNotFound) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Member not found.", err.Error()))
		} else {
			utils.LogError(err, "GetMemberDetail: Error from memberService.GetMemberDetail")
			respondInternal(c, "Failed to fetch member.")
		}
		return
	}
	c.JSON(http.StatusOK, detail)
}

func (h *MemberHandler) CreateMember(c *gin.Context) {
	var req services.CreateMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.LogError(err, "CreateMember: Failed to bind JSON")
		respondBindError(c, err)
		return
	}
	member, err := h.memberService.CreateMember(req)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrValidation):
			utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, err.Error(), ""))
		case errors.Is(err, services.ErrMemberNameExists):
			utils.RespondWithError(c, utils.NewAPIError(http.StatusConflict, utils.ErrCodeConflict, "Member already exists.", err.Error()))
		default:
			utils.LogError(err, "CreateMember: Error from memberService.CreateMember")
			respondInternal(c, "Failed to create member.")
		}
		return
	}
	c.JSON(http.StatusCreated, member)
}

func (h *MemberHandler) DeleteMember(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	if err := h.memberService.DeleteMember(id); err != nil {
		if errors.Is(err, services.ErrMemberNotFound) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Member not found.", err.Error()))
		} else {
			utils.LogError(err, "DeleteMember: Error from memberService.DeleteMember")
			respondInternal(c, "Failed to delete member.")
		}
		return
	}
	c.Status(http.StatusNoContent)
}

// RecomputeAggregates rebuilds every member's totals from the sales table.
func (h *MemberHandler) RecomputeAggregates(c *gin.Context) {
	updated, err := h.memberService.RecomputeAll()
	if err != nil {
		utils.LogError(err, "RecomputeAggregates: Error from memberService.RecomputeAll")
		respondInternal(c, "Failed to recompute member totals.")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "updated": updated})
}

// UploadCurrentLoad imports balances from an xlsx file sent as the "file" form field.
func (h *MemberHandler) UploadCurrentLoad(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxWorkbookSize)
	fileHeader, err := c.FormFile("file")
	if err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeBadRequest, "No file uploaded.", err.Error()))
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		utils.LogError(err, "UploadCurrentLoad: Failed to open upload")
		respondInternal(c, "Failed to read upload.")
		return
	}
	defer file.Close()

	result, err := h.memberService.ImportCurrentLoad(c.Request.Context(), file)
	if err != nil {
		if errors.Is(err, services.ErrInvalidWorkbook) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "File is not a readable workbook.", err.Error()))
		} else {
			utils.LogError(err, "UploadCurrentLoad: Error from memberService.ImportCurrentLoad")
			respondInternal(c, "Failed to import member balances.")
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Members updated successfully.", "result": result})
}
