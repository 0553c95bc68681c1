package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/storefront/internal/logging"
	"github.com/Skotchmaster/storefront/internal/service"
	"github.com/Skotchmaster/storefront/internal/transport"
)

type CommentHTTP struct {
	Svc *service.CommentService
}

func (h *CommentHTTP) List(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "comments.list")

	productID, err := paramID(c, "id")
	if err != nil {
		return fail(l, "list_comments_error", err)
	}
	p := pageOf(c)
	total, items, err := h.Svc.List(ctx, productID, p.offset, p.limit)
	if err != nil {
		return fail(l, "list_comments_error", err)
	}
	return respond(c, http.StatusOK, p.wrap(items, total))
}

func (h *CommentHTTP) Create(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "comments.create")

	caller, err := callerOf(c)
	if err != nil {
		return fail(l, "create_comment_error", err)
	}
	productID, err := paramID(c, "id")
	if err != nil {
		return fail(l, "create_comment_error", err)
	}
	var req transport.CreateCommentRequest
	if err := c.Bind(&req); err != nil {
		return fail(l, "create_comment_error", badBody(err))
	}

	cm, err := h.Svc.Create(ctx, caller, productID, req)
	if err != nil {
		return fail(l, "create_comment_error", err)
	}
	return respond(c, http.StatusCreated, cm)
}

func (h *CommentHTTP) Delete(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "comments.delete")

	caller, err := callerOf(c)
	if err != nil {
		return fail(l, "delete_comment_error", err)
	}
	id, err := paramID(c, "id")
	if err != nil {
		return fail(l, "delete_comment_error", err)
	}
	if err := h.Svc.Delete(ctx, caller, id); err != nil {
		return fail(l, "delete_comment_error", err)
	}
	return respond(c, http.StatusOK, nil)
}

func (h *CommentHTTP) ListPending(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.list_comments")

	if s := c.QueryParam("status"); s != "" && s != "pending" {
		fe := transport.FieldErrors{}
		fe.Add("status", "only pending is supported")
		return fail(l, "list_pending_comments_error", fe)
	}
	p := pageOf(c)
	total, items, err := h.Svc.ListPending(ctx, p.offset, p.limit)
	if err != nil {
		return fail(l, "list_pending_comments_error", err)
	}
	return respond(c, http.StatusOK, p.wrap(items, total))
}

func (h *CommentHTTP) Approve(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.approve_comment")

	id, err := paramID(c, "id")
	if err != nil {
		return fail(l, "approve_comment_error", err)
	}
	if err := h.Svc.Approve(ctx, id); err != nil {
		return fail(l, "approve_comment_error", err)
	}
	return respond(c, http.StatusOK, nil)
}

type TicketHTTP struct {
	Svc *service.TicketService
}

func (h *TicketHTTP) Create(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "tickets.create")

	caller, err := callerOf(c)
	if err != nil {
		return fail(l, "create_ticket_error", err)
	}
	var req transport.CreateTicketRequest
	if err := c.Bind(&req); err != nil {
		return fail(l, "create_ticket_error", badBody(err))
	}
	t, err := h.Svc.Create(ctx, caller.ID, req)
	if err != nil {
		return fail(l, "create_ticket_error", err)
	}
	l.Info("ticket opened", "ticket_id", t.ID)
	return respond(c, http.StatusCreated, t)
}

func (h *TicketHTTP) ListOwn(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "tickets.list_own")

	caller, err := callerOf(c)
	if err != nil {
		return fail(l, "list_tickets_error", err)
	}
	p := pageOf(c)
	total, items, err := h.Svc.ListOwn(ctx, caller.ID, p.offset, p.limit)
	if err != nil {
		return fail(l, "list_tickets_error", err)
	}
	return respond(c, http.StatusOK, p.wrap(items, total))
}

func (h *TicketHTTP) ListAll(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.list_tickets")

	p := pageOf(c)
	total, items, err := h.Svc.ListAll(ctx, c.QueryParam("status"), p.offset, p.limit)
	if err != nil {
		return fail(l, "list_tickets_error", err)
	}
	return respond(c, http.StatusOK, p.wrap(items, total))
}

func (h *TicketHTTP) Get(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "tickets.get")

	caller, err := callerOf(c)
	if err != nil {
		return fail(l, "get_ticket_error", err)
	}
	id, err := paramID(c, "id")
	if err != nil {
		return fail(l, "get_ticket_error", err)
	}
	t, err := h.Svc.Get(ctx, caller, id)
	if err != nil {
		return fail(l, "get_ticket_error", err)
	}
	return respond(c, http.StatusOK, t)
}

func (h *TicketHTTP) Reply(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "tickets.reply")

	caller, err := callerOf(c)
	if err != nil {
		return fail(l, "reply_ticket_error", err)
	}
	id, err := paramID(c, "id")
	if err != nil {
		return fail(l, "reply_ticket_error", err)
	}
	var req transport.TicketMessageRequest
	if err := c.Bind(&req); err != nil {
		return fail(l, "reply_ticket_error", badBody(err))
	}
	t, err := h.Svc.Reply(ctx, caller, id, req)
	if err != nil {
		return fail(l, "reply_ticket_error", err)
	}
	return respond(c, http.StatusCreated, t)
}

func (h *TicketHTTP) Close(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.close_ticket")

	id, err := paramID(c, "id")
	if err != nil {
		return fail(l, "close_ticket_error", err)
	}
	if err := h.Svc.Close(ctx, id); err != nil {
		return fail(l, "close_ticket_error", err)
	}
	return respond(c, http.StatusOK, nil)
}
