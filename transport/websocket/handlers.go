package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rocketscienceinc/tictactoe-minimax/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-minimax/internal/entity"
)

var errGameRequired = errors.New("game_id is required")

func decodePayload(msg *Message) (RequestPayload, error) {
	var payload RequestPayload
	if len(msg.Payload) == 0 {
		return payload, nil
	}

	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		return payload, fmt.Errorf("failed to unmarshal payload: %w", err)
	}

	return payload, nil
}

func (that *Server) handleNewGame(ctx context.Context, c *client, msg *Message) error {
	log := that.logger.With("method", "handleNewGame")

	payload, err := decodePayload(msg)
	if err != nil {
		c.sendError(msg.Action, "invalid payload")
		return err
	}

	mark := entity.PlayerX
	if payload.Mark != "" {
		if mark, err = entity.ParseMark(payload.Mark); err != nil {
			c.sendError(msg.Action, err.Error())
			return nil
		}
	}

	game, err := that.gameUseCase.NewGame(ctx, mark)
	if err != nil {
		c.sendError(msg.Action, "failed to create a new game")
		return err
	}

	c.setGame(game.ID)
	c.sendMessage(msg.Action, ResponsePayload{Game: game})

	log.Info("game created", "gameID", game.ID)

	return nil
}

func (that *Server) handleGetGame(ctx context.Context, c *client, msg *Message) error {
	id, ok := that.gameIDFrom(c, msg)
	if !ok {
		return nil
	}

	game, err := that.gameUseCase.GetGame(ctx, id)
	if err != nil {
		return that.replyError(c, msg.Action, err)
	}

	c.sendMessage(msg.Action, ResponsePayload{Game: game})

	return nil
}

func (that *Server) handleGameTurn(ctx context.Context, c *client, msg *Message) error {
	payload, err := decodePayload(msg)
	if err != nil {
		c.sendError(msg.Action, "invalid payload")
		return err
	}

	if payload.Cell == nil {
		c.sendError(msg.Action, "cell is required")
		return nil
	}

	id := c.resolveGame(payload.GameID)
	if id == "" {
		c.sendError(msg.Action, errGameRequired.Error())
		return nil
	}

	game, err := that.gameUseCase.MakeTurn(ctx, id, *payload.Cell)
	if err != nil {
		return that.replyError(c, msg.Action, err)
	}

	c.sendMessage(msg.Action, ResponsePayload{Game: game, Cell: payload.Cell})

	if game.IsBotTurn() {
		go that.scheduleBotTurn(ctx, c, game.ID)
	}

	return nil
}

func (that *Server) handleGameJump(ctx context.Context, c *client, msg *Message) error {
	payload, err := decodePayload(msg)
	if err != nil {
		c.sendError(msg.Action, "invalid payload")
		return err
	}

	if payload.Step == nil {
		c.sendError(msg.Action, "step is required")
		return nil
	}

	id := c.resolveGame(payload.GameID)
	if id == "" {
		c.sendError(msg.Action, errGameRequired.Error())
		return nil
	}

	game, err := that.gameUseCase.JumpTo(ctx, id, *payload.Step)
	if err != nil {
		return that.replyError(c, msg.Action, err)
	}

	c.sendMessage(msg.Action, ResponsePayload{Game: game})

	if game.IsBotTurn() {
		go that.scheduleBotTurn(ctx, c, game.ID)
	}

	return nil
}

func (that *Server) handleGameRestart(ctx context.Context, c *client, msg *Message) error {
	id, ok := that.gameIDFrom(c, msg)
	if !ok {
		return nil
	}

	game, err := that.gameUseCase.Restart(ctx, id)
	if err != nil {
		return that.replyError(c, msg.Action, err)
	}

	c.sendMessage(msg.Action, ResponsePayload{Game: game})

	return nil
}

func (that *Server) handleGameHint(ctx context.Context, c *client, msg *Message) error {
	id, ok := that.gameIDFrom(c, msg)
	if !ok {
		return nil
	}

	hint, err := that.gameUseCase.Hint(ctx, id)
	if err != nil {
		return that.replyError(c, msg.Action, err)
	}

	c.sendMessage(msg.Action, ResponsePayload{Hint: hint})

	return nil
}

// scheduleBotTurn - lets the adversary answer after botDelay unless the connection is
// gone by then.
func (that *Server) scheduleBotTurn(ctx context.Context, c *client, id string) {
	log := that.logger.With("method", "scheduleBotTurn", "gameID", id)

	timer := time.NewTimer(that.botDelay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return
	case <-timer.C:
	}

	game, cell, err := that.gameUseCase.BotTurn(ctx, id)
	if errors.Is(err, apperror.ErrNotYourTurn) || errors.Is(err, apperror.ErrGameFinished) {
		// the human jumped or restarted meanwhile
		log.Debug("bot turn skipped", "error", err)
		return
	}

	if err != nil {
		log.Error("bot failed to make turn", "error", err)
		c.sendError(ActionGameBotTurn, "bot failed to make turn")
		return
	}

	c.sendMessage(ActionGameBotTurn, ResponsePayload{Game: game, Cell: &cell})
}

func (that *Server) gameIDFrom(c *client, msg *Message) (string, bool) {
	payload, err := decodePayload(msg)
	if err != nil {
		c.sendError(msg.Action, "invalid payload")
		return "", false
	}

	id := c.resolveGame(payload.GameID)
	if id == "" {
		c.sendError(msg.Action, errGameRequired.Error())
		return "", false
	}

	return id, true
}

// replyError - domain errors go back to the client as is, anything else is logged.
func (that *Server) replyError(c *client, action string, err error) error {
	switch {
	case errors.Is(err, apperror.ErrGameNotFound),
		errors.Is(err, apperror.ErrInvalidMove),
		errors.Is(err, apperror.ErrInvalidStep),
		errors.Is(err, apperror.ErrGameFinished),
		errors.Is(err, apperror.ErrNotYourTurn),
		errors.Is(err, apperror.ErrNoLegalMove):
		c.sendError(action, err.Error())
		return nil
	default:
		c.sendError(action, "internal error")
		return err
	}
}
