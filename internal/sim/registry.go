package sim

import (
	"lightning/internal/core"
	"lightning/internal/growth"
)

func init() {
	core.Register("lightning", func(cfg map[string]string) (core.Sim, error) {
		c, err := FromMap(cfg)
		if err != nil {
			return nil, err
		}
		return New(c)
	})
	core.Register("lightning-cellular", func(cfg map[string]string) (core.Sim, error) {
		c, err := FromMap(cfg)
		if err != nil {
			return nil, err
		}
		c.Growth.Policy = growth.PolicyCellular
		return New(c, WithName("lightning-cellular"))
	})
	core.Register("laplace", func(cfg map[string]string) (core.Sim, error) {
		c, err := FromMap(cfg)
		if err != nil {
			return nil, err
		}
		return NewLaplace(c)
	})
}
