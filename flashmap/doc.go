// Package flashmap describes the flash region managed by the IAP core.
//
// A Region is immutable board configuration: where flash starts, where the user
// application starts, where the managed region ends, and the erase (page) and
// program-unit granularity of the controller. It carries no state.
//
// Use the STM32G0x1 preset or load a layout from YAML:
//
//	cfg, err := flashmap.LoadConfig("board.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	region := cfg.Flash
//
// where board.yaml contains:
//
//	flash:
//	  base: 0x08000000
//	  app_start: 0x08008000
//	  end: 0x08020000
//	  page_size: 2048
//	  program_unit: 8
//	  bank: 1
package flashmap
