package songplay

import (
	"github.com/smallbiznis/sparkify/internal/songplay/repository"
	"github.com/smallbiznis/sparkify/internal/songplay/service"
	"go.uber.org/fx"
)

var Module = fx.Module("songplay.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
