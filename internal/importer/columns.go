package importer

// Column positions of the trade performance export.
//
//	Trade number;Instrument;Account;Strategy;Market pos.;Qty;Entry price;Exit price;
//	Entry time;Exit time;Entry name;Exit name;Profit;Cum. net profit;Commission;
//	Fee1;Fee2;Fee3;Fee4;MAE;MFE;ETD;Bars
const (
	ColTradeNumber = iota
	ColInstrument
	ColAccount
	ColStrategy
	ColMarketPosition
	ColQuantity
	ColEntryPrice
	ColExitPrice
	ColEntryTime
	ColExitTime
	ColEntryName
	ColExitName
	ColProfit
	ColCumNetProfit
	ColCommission
	ColFee1
	ColFee2
	ColFee3
	ColFee4
	ColMAE
	ColMFE
	ColETD
	ColBars

	ColumnCount
)

// Field names used in FieldError.Field
const (
	FieldRow        = "row"
	FieldSymbol     = "symbol"
	FieldDirection  = "direction"
	FieldQuantity   = "quantity"
	FieldEntryPrice = "entryPrice"
	FieldExitPrice  = "exitPrice"
	FieldEntryDate  = "entryDate"
	FieldExitDate   = "exitDate"
	FieldPnL        = "pnl"
	FieldCommission = "commission"
	FieldMAE        = "mae"
	FieldMFE        = "mfe"
	FieldStrategy   = "sourceStrategyName"
	FieldAccount    = "sourceAccountName"
	FieldExitName   = "exitSignalName"
	FieldStorage    = "storage"
)

// fieldColumns maps a candidate field to the export column it is read from
var fieldColumns = map[string]int{
	FieldSymbol:     ColInstrument,
	FieldDirection:  ColMarketPosition,
	FieldQuantity:   ColQuantity,
	FieldEntryPrice: ColEntryPrice,
	FieldExitPrice:  ColExitPrice,
	FieldEntryDate:  ColEntryTime,
	FieldExitDate:   ColExitTime,
	FieldPnL:        ColProfit,
	FieldCommission: ColCommission,
	FieldMAE:        ColMAE,
	FieldMFE:        ColMFE,
	FieldStrategy:   ColStrategy,
	FieldAccount:    ColAccount,
	FieldExitName:   ColExitName,
}
