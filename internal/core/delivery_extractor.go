package core

func (e Extractor) deliveryStep(s docState, line string) (docState, *RawDeliveryLine) {
	s = s.withOrderFrom(e.Orders, line)

	id, ok := e.Products.FindProductID(line)
	if !ok {
		return s, nil
	}
	qty, ok := GuessDeliveredQty(Fields(line), id)
	if !ok {
		return s, nil
	}
	return s, &RawDeliveryLine{
		ProductID:    id,
		DeliveredQty: qty,
		OrderNumber:  s.currentOrder(),
	}
}

// ExtractDelivery turns the pages of one delivery note into delivered lines.
// Delivery notes have no section markers, so every line is a candidate.
func (e Extractor) ExtractDelivery(pages []string) ([]RawDeliveryLine, string, []string) {
	var s docState
	var out []RawDeliveryLine
	for _, page := range pages {
		for _, line := range SplitLines(page) {
			var rec *RawDeliveryLine
			s, rec = e.deliveryStep(s, line)
			if rec != nil {
				out = append(out, *rec)
			}
		}
	}
	return out, s.currentOrder(), s.seen
}
